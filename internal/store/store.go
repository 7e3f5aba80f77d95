package store

import (
	"context"
	"errors"
)

// Ошибки уровня хранилища.
var (
	ErrNotFound      = errors.New("документ не найден")
	ErrAlreadyExists = errors.New("документ уже существует")
)

// serverTimestamp — маркер для полей, которые должно заполнить само хранилище.
type serverTimestamp struct{}

// ServerTimestamp подставляется вместо значения поля, чтобы хранилище
// записало момент создания документа на своей стороне.
var ServerTimestamp = serverTimestamp{}

// Filter описывает условие выборки по полю документа.
type Filter struct {
	Path  string
	Op    string // "==", ">", ">=", "<", "<="
	Value interface{}
}

// Order описывает сортировку результата выборки.
type Order struct {
	Path string
	Desc bool
}

// Document — документ коллекции: идентификатор и набор полей.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Snapshot — очередное состояние подписки: либо полный список документов,
// либо ошибка доставки. Снимок всегда заменяет предыдущий целиком.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Subscription — живая подписка на коллекцию. После Stop новые снимки
// не доставляются, канал закрывается.
type Subscription interface {
	Snapshots() <-chan Snapshot
	Stop()
}

// Store — документное хранилище, через которое работает все приложение.
// Реализации: Firestore (боевая) и Memory (тесты и локальный запуск).
type Store interface {
	// Query возвращает документы коллекции по фильтрам с сортировкой.
	Query(ctx context.Context, collection string, filters []Filter, order *Order) ([]Document, error)

	// Subscribe открывает живую подписку на ту же выборку.
	Subscribe(ctx context.Context, collection string, filters []Filter, order *Order) (Subscription, error)

	// Get возвращает документ по идентификатору или ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Add создает документ с новым идентификатором и возвращает его.
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)

	// Update изменяет отдельные поля документа или возвращает ErrNotFound.
	Update(ctx context.Context, collection, id string, updates map[string]interface{}) error

	// Delete удаляет документ. Удаление отсутствующего документа не ошибка.
	Delete(ctx context.Context, collection, id string) error

	// BatchCreate атомарно создает все документы с заданными идентификаторами.
	// Если хотя бы один уже существует, не создается ни один и возвращается
	// ErrAlreadyExists.
	BatchCreate(ctx context.Context, collection string, docs []Document) error
}
