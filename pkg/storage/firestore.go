package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gridflux/gridflux/pkg/log"
	"github.com/gridflux/gridflux/pkg/types"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreProvider implements Database on Google Cloud Firestore. Records
// are stored as JSON blobs with RFC3339 timestamps as document IDs so range
// queries run on document ID order without composite indexes.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
	installID string
}

// configuredFirestore sets up flags for the Firestore provider.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	installID := lflag.String("firestore-install-id", "default", "Install document to record history under")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.installID = *installID

		// set this because that's how the firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	if f.installID == "" {
		return fmt.Errorf("firestore-install-id is required")
	}
	return nil
}

// Init initializes the Firestore client. This must be called before using
// the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) collection(name string) *firestore.CollectionRef {
	return f.client.Collection("installs").Doc(f.installID).Collection(name)
}

// InsertDecision adds one decision to the "decision_history" collection as a
// JSON blob keyed by its RFC3339 timestamp.
func (f *FirestoreProvider) InsertDecision(ctx context.Context, d types.Decision) error {
	jsonBytes, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	docID := d.Timestamp.UTC().Format(time.RFC3339)
	_, err = f.collection("decision_history").Doc(docID).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": d.Timestamp,
		"version":   types.CurrentDecisionVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

// UpsertPriceSnapshot adds or replaces the curves recorded for one
// regeneration in the "price_history" collection.
func (f *FirestoreProvider) UpsertPriceSnapshot(ctx context.Context, snap types.PriceSnapshot) error {
	if snap.Timestamp.IsZero() {
		return fmt.Errorf("price snapshot missing timestamp")
	}
	jsonBytes, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal price snapshot: %w", err)
	}

	docID := snap.Timestamp.UTC().Format(time.RFC3339)
	_, err = f.collection("price_history").Doc(docID).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": snap.Timestamp,
		"version":   types.CurrentPriceVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert price snapshot: %w", err)
	}
	return nil
}

// GetDecisionHistory retrieves decisions within the time range using
// document ID range queries.
func (f *FirestoreProvider) GetDecisionHistory(ctx context.Context, start, end time.Time) ([]types.Decision, error) {
	var decisions []types.Decision
	err := f.queryRange(ctx, "decision_history", start, end, func(docID, jsonStr string) error {
		var d types.Decision
		if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
			return fmt.Errorf("failed to unmarshal decision (id=%s): %w", docID, err)
		}
		decisions = append(decisions, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

// GetPriceHistory retrieves price snapshots within the time range.
func (f *FirestoreProvider) GetPriceHistory(ctx context.Context, start, end time.Time) ([]types.PriceSnapshot, error) {
	var snapshots []types.PriceSnapshot
	err := f.queryRange(ctx, "price_history", start, end, func(docID, jsonStr string) error {
		var snap types.PriceSnapshot
		if err := json.Unmarshal([]byte(jsonStr), &snap); err != nil {
			return fmt.Errorf("failed to unmarshal price snapshot (id=%s): %w", docID, err)
		}
		snapshots = append(snapshots, snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// queryRange iterates the JSON blobs of a collection between two document ID
// bounds in ascending order.
func (f *FirestoreProvider) queryRange(ctx context.Context, name string, start, end time.Time, each func(docID, jsonStr string) error) error {
	coll := f.collection(name)
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(start.UTC().Format(time.RFC3339))).
		Where(firestore.DocumentID, "<", coll.Doc(end.UTC().Format(time.RFC3339))).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("error iterating %s: %w", name, err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "document missing json", slog.String("collection", name), slog.String("docID", doc.Ref.ID), slog.Any("err", err))
			return fmt.Errorf("document %s/%s missing 'json' field: %w", name, doc.Ref.ID, err)
		}
		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "document json not string", slog.String("collection", name), slog.String("docID", doc.Ref.ID))
			return fmt.Errorf("document %s/%s 'json' field is not a string", name, doc.Ref.ID)
		}
		if err := each(doc.Ref.ID, jsonStr); err != nil {
			return err
		}
	}
	return nil
}

// GetLatestDecisionTime returns the timestamp of the newest decision. A
// missing collection is reported as the zero time, not an error.
func (f *FirestoreProvider) GetLatestDecisionTime(ctx context.Context) (time.Time, error) {
	coll := f.collection("decision_history")
	iter := coll.OrderBy(firestore.DocumentID, firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return time.Time{}, nil
	}
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to fetch latest decision: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, doc.Ref.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse decision doc ID %q: %w", doc.Ref.ID, err)
	}
	return ts, nil
}

var _ Database = (*FirestoreProvider)(nil)
