package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/client/client"
	"github.com/dmitrijs2005/healthkey/internal/client/models"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/events"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/wallet"
	"github.com/stretchr/testify/require"
)

/*************
 * In-memory gateway
 *************/

type memGateway struct {
	mu sync.Mutex

	price     int64
	nextID    string
	uploadErr error
	priceWait time.Duration

	objects  map[string][]byte
	tags     map[string][]client.Tag
	funded   []int64
	sessions int
	counter  int

	inflight    int
	maxInflight int
}

func newMemGateway() *memGateway {
	return &memGateway{price: 1000, objects: map[string][]byte{}, tags: map[string][]client.Tag{}}
}

func (g *memGateway) OpenSession(ctx context.Context, signer wallet.Signer) (client.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions++
	return &memSession{g: g, address: signer.Address()}, nil
}

func (g *memGateway) Fetch(ctx context.Context, id string) (*client.Object, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	data, ok := g.objects[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	ct := "application/octet-stream"
	for _, t := range g.tags[id] {
		if t.Name == "Content-Type" {
			ct = t.Value
		}
	}
	return &client.Object{Data: append([]byte(nil), data...), ContentType: ct}, nil
}

func (g *memGateway) tamper(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.objects[id][0] ^= 0x01
}

type memSession struct {
	g       *memGateway
	address string
}

func (s *memSession) Address() string { return s.address }

func (s *memSession) Price(ctx context.Context, size int) (int64, error) {
	s.g.mu.Lock()
	s.g.inflight++
	if s.g.inflight > s.g.maxInflight {
		s.g.maxInflight = s.g.inflight
	}
	wait := s.g.priceWait
	price := s.g.price
	s.g.mu.Unlock()

	time.Sleep(wait)
	return price, nil
}

func (s *memSession) Fund(ctx context.Context, amount int64) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	s.g.funded = append(s.g.funded, amount)
	return nil
}

func (s *memSession) Upload(ctx context.Context, data []byte, tags []client.Tag) (string, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	s.g.inflight--
	if s.g.uploadErr != nil {
		return "", s.g.uploadErr
	}
	id := s.g.nextID
	if id == "" {
		s.g.counter++
		id = fmt.Sprintf("obj-%d", s.g.counter)
	}
	s.g.objects[id] = append([]byte(nil), data...)
	s.g.tags[id] = tags
	return id, nil
}

func (s *memSession) Balance(ctx context.Context) (*client.Balance, error) {
	return &client.Balance{Wallet: 1, Credit: 2}, nil
}

/*************
 * Anchorer fake
 *************/

type fakeAnchorer struct {
	mu    sync.Mutex
	err   error
	memos []string
}

func (a *fakeAnchorer) Anchor(ctx context.Context, signer ledger.Signer, memo string) (*ledger.AnchorReceipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.memos = append(a.memos, memo)
	if a.err != nil {
		return nil, a.err
	}
	return &ledger.AnchorReceipt{
		Receipt: ledger.Receipt{Signature: "5sig", LastValidBlockHeight: 100, Slot: 7},
		Memo:    memo,
	}, nil
}

/*************
 * Harness
 *************/

type harness struct {
	db       *sql.DB
	gw       *memGateway
	wallet   *WalletSession
	events   *EventLog
	uploads  *uploads.SQLiteRepository
	metadata *metadata.SQLiteRepository
	pipeline Pipeline

	mu  sync.Mutex
	log []models.Event
}

func newHarness(t *testing.T, anchorer Anchorer) *harness {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "hk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		db:       db,
		gw:       newMemGateway(),
		wallet:   NewWalletSession(),
		events:   NewEventLog(),
		uploads:  uploads.NewSQLiteRepository(db),
		metadata: metadata.NewSQLiteRepository(db),
	}
	h.events.Subscribe(func(ctx context.Context, e models.Event) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.log = append(h.log, e)
	})
	h.events.Subscribe(PersistTo(events.NewSQLiteRepository(db), logging.NewNopLogger()))

	h.pipeline = NewPipeline(Deps{
		Gateway:  h.gw,
		Uploads:  h.uploads,
		Metadata: h.metadata,
		Anchorer: anchorer,
		Wallet:   h.wallet,
		Events:   h.events,
		Logger:   logging.NewNopLogger(),
	})
	return h
}

func (h *harness) connect(t *testing.T) *wallet.KeyWallet {
	t.Helper()
	w, err := wallet.Generate()
	require.NoError(t, err)
	require.NoError(t, h.pipeline.Connect(context.Background(), w))
	return w
}

func (h *harness) kinds() []models.EventKind {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.EventKind, 0, len(h.log))
	for _, e := range h.log {
		out = append(out, e.Kind)
	}
	return out
}
