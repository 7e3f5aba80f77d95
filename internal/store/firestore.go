package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore — реализация Store поверх клиента Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore оборачивает готовый клиент Firestore.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) buildQuery(collection string, filters []Filter, order *Order) firestore.Query {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Path, f.Op, f.Value)
	}
	if order != nil {
		dir := firestore.Asc
		if order.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(order.Path, dir)
	}
	return q
}

func (s *Firestore) Query(ctx context.Context, collection string, filters []Filter, order *Order) ([]Document, error) {
	docs, err := s.buildQuery(collection, filters, order).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore: выборка %s: %w", collection, err)
	}
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, Document{ID: d.Ref.ID, Data: d.Data()})
	}
	return out, nil
}

func (s *Firestore) Subscribe(ctx context.Context, collection string, filters []Filter, order *Order) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &firestoreSubscription{
		ch:     make(chan Snapshot, 1),
		cancel: cancel,
	}
	it := s.buildQuery(collection, filters, order).Snapshots(ctx)
	go sub.run(ctx, it)
	return sub, nil
}

func (s *Firestore) Get(ctx context.Context, collection, id string) (Document, error) {
	doc, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, fmt.Errorf("firestore: %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("firestore: чтение %s/%s: %w", collection, id, err)
	}
	return Document{ID: doc.Ref.ID, Data: doc.Data()}, nil
}

func (s *Firestore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, normalize(data))
	if err != nil {
		return "", fmt.Errorf("firestore: запись в %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *Firestore) Update(ctx context.Context, collection, id string, updates map[string]interface{}) error {
	fieldUpdates := make([]firestore.Update, 0, len(updates))
	for path, value := range updates {
		fieldUpdates = append(fieldUpdates, firestore.Update{Path: path, Value: value})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, fieldUpdates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("firestore: %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("firestore: обновление %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore: удаление %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Firestore) BatchCreate(ctx context.Context, collection string, docs []Document) error {
	batch := s.client.Batch()
	for _, d := range docs {
		batch.Create(s.client.Collection(collection).Doc(d.ID), normalize(d.Data))
	}
	_, err := batch.Commit(ctx)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("firestore: пакетная запись в %s: %w", collection, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("firestore: пакетная запись в %s: %w", collection, err)
	}
	return nil
}

// normalize заменяет маркер ServerTimestamp на серверную отметку Firestore.
func normalize(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}

type firestoreSubscription struct {
	ch     chan Snapshot
	cancel context.CancelFunc
}

func (s *firestoreSubscription) Snapshots() <-chan Snapshot { return s.ch }

func (s *firestoreSubscription) Stop() { s.cancel() }

func (s *firestoreSubscription) run(ctx context.Context, it *firestore.QuerySnapshotIterator) {
	defer close(s.ch)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err == iterator.Done || status.Code(err) == codes.Canceled || ctx.Err() != nil {
			return
		}
		if err != nil {
			s.send(ctx, Snapshot{Err: err})
			return
		}
		docs, err := snap.Documents.GetAll()
		if err != nil {
			s.send(ctx, Snapshot{Err: err})
			continue
		}
		out := make([]Document, 0, len(docs))
		for _, d := range docs {
			out = append(out, Document{ID: d.Ref.ID, Data: d.Data()})
		}
		s.send(ctx, Snapshot{Docs: out})
	}
}

// send доставляет снимок, вытесняя недоставленный предыдущий: получателю
// всегда нужен только самый свежий полный снимок.
func (s *firestoreSubscription) send(ctx context.Context, snap Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
