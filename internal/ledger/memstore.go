package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fundchain_ledger/internal/domain"
)

// MemStore keeps the whole ledger in process memory. It backs the test
// suite and local development without Postgres; an atomic unit holds the
// store mutex for its whole duration, so readers outside the unit block
// until it commits or rolls back and never observe partial state. Rollback
// restores a snapshot taken at unit start.
type MemStore struct {
	mu    sync.Mutex
	state *memState
	inTx  bool
}

type memState struct {
	users           map[string]domain.User
	wallets         map[string]domain.Wallet // keyed by user id
	platform        domain.PlatformWallet
	campaigns       map[string]domain.Campaign
	campaignWallets map[string]domain.CampaignWallet // keyed by campaign id
	milestones      map[string]domain.Milestone
	investments     map[string]domain.Investment
	votes           map[string]domain.MilestoneVote // keyed by milestone id + investor id
	updates         map[string][]domain.CampaignUpdate
	transactions    []domain.TokenTransaction
	idempotency     map[string]domain.IdempotencyRecord
}

// NewMemStore returns an empty in-memory ledger
func NewMemStore() *MemStore {
	st := newMemState()
	return &MemStore{state: &st}
}

func newMemState() memState {
	return memState{
		users:           map[string]domain.User{},
		wallets:         map[string]domain.Wallet{},
		campaigns:       map[string]domain.Campaign{},
		campaignWallets: map[string]domain.CampaignWallet{},
		milestones:      map[string]domain.Milestone{},
		investments:     map[string]domain.Investment{},
		votes:           map[string]domain.MilestoneVote{},
		updates:         map[string][]domain.CampaignUpdate{},
		idempotency:     map[string]domain.IdempotencyRecord{},
	}
}

// clone copies the state so a failed unit can be rolled back. Struct values
// are copied by assignment; only the containers need duplicating.
func (st memState) clone() memState {
	out := newMemState()
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.wallets {
		out.wallets[k] = v
	}
	out.platform = st.platform
	for k, v := range st.campaigns {
		out.campaigns[k] = v
	}
	for k, v := range st.campaignWallets {
		out.campaignWallets[k] = v
	}
	for k, v := range st.milestones {
		out.milestones[k] = v
	}
	for k, v := range st.investments {
		out.investments[k] = v
	}
	for k, v := range st.votes {
		out.votes[k] = v
	}
	for k, v := range st.updates {
		out.updates[k] = append([]domain.CampaignUpdate(nil), v...)
	}
	out.transactions = append([]domain.TokenTransaction(nil), st.transactions...)
	for k, v := range st.idempotency {
		out.idempotency[k] = v
	}
	return out
}

// Atomically serializes the unit under the store mutex and restores the
// pre-unit snapshot when fn fails. fn receives a transaction-bound view of
// the store; the outer store keeps requiring the mutex, so concurrent
// callers wait for the unit instead of reading mid-transfer state. Nested
// calls join the enclosing unit.
func (m *MemStore) Atomically(ctx context.Context, fn func(Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state.clone()
	err := fn(&MemStore{state: m.state, inTx: true})
	if err != nil {
		*m.state = snapshot
	}
	return err
}

func (m *MemStore) lockUnlessTx() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}

func memNotFound(what string) error {
	return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
}

func (m *MemStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	defer m.lockUnlessTx()()
	u, ok := m.state.users[id]
	if !ok {
		return nil, memNotFound("user")
	}
	return &u, nil
}

// PutUser seeds a user row; it exists for tests and local bootstrap
func (m *MemStore) PutUser(u domain.User) {
	defer m.lockUnlessTx()()
	ensureID(&u.ID)
	m.state.users[u.ID] = u
}

func (m *MemStore) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	defer m.lockUnlessTx()()
	w, ok := m.state.wallets[userID]
	if !ok {
		return nil, memNotFound("wallet")
	}
	return &w, nil
}

func (m *MemStore) CreateWallet(ctx context.Context, w *domain.Wallet) error {
	defer m.lockUnlessTx()()
	ensureID(&w.ID)
	w.UpdatedAt = nowMilli()
	m.state.wallets[w.UserID] = *w
	return nil
}

func (m *MemStore) SaveWallet(ctx context.Context, w *domain.Wallet) error {
	defer m.lockUnlessTx()()
	w.UpdatedAt = nowMilli()
	m.state.wallets[w.UserID] = *w
	return nil
}

func (m *MemStore) GetPlatformWallet(ctx context.Context) (*domain.PlatformWallet, error) {
	defer m.lockUnlessTx()()
	w := m.state.platform
	return &w, nil
}

func (m *MemStore) SavePlatformWallet(ctx context.Context, w *domain.PlatformWallet) error {
	defer m.lockUnlessTx()()
	w.UpdatedAt = nowMilli()
	m.state.platform = *w
	return nil
}

func (m *MemStore) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	defer m.lockUnlessTx()()
	c, ok := m.state.campaigns[id]
	if !ok {
		return nil, memNotFound("campaign")
	}
	return &c, nil
}

func (m *MemStore) SaveCampaign(ctx context.Context, c *domain.Campaign) error {
	defer m.lockUnlessTx()()
	ensureID(&c.ID)
	c.UpdatedAt = nowMilli()
	m.state.campaigns[c.ID] = *c
	return nil
}

func (m *MemStore) GetCampaignWallet(ctx context.Context, campaignID string) (*domain.CampaignWallet, error) {
	defer m.lockUnlessTx()()
	w, ok := m.state.campaignWallets[campaignID]
	if !ok {
		return nil, memNotFound("campaign wallet")
	}
	return &w, nil
}

func (m *MemStore) CreateCampaignWallet(ctx context.Context, w *domain.CampaignWallet) error {
	defer m.lockUnlessTx()()
	ensureID(&w.ID)
	w.UpdatedAt = nowMilli()
	m.state.campaignWallets[w.CampaignID] = *w
	return nil
}

func (m *MemStore) SaveCampaignWallet(ctx context.Context, w *domain.CampaignWallet) error {
	return m.CreateCampaignWallet(ctx, w)
}

func (m *MemStore) GetMilestone(ctx context.Context, id string) (*domain.Milestone, error) {
	defer m.lockUnlessTx()()
	ms, ok := m.state.milestones[id]
	if !ok {
		return nil, memNotFound("milestone")
	}
	return &ms, nil
}

func (m *MemStore) SaveMilestone(ctx context.Context, ms *domain.Milestone) error {
	defer m.lockUnlessTx()()
	ensureID(&ms.ID)
	m.state.milestones[ms.ID] = *ms
	return nil
}

func (m *MemStore) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	defer m.lockUnlessTx()()
	ensureID(&inv.ID)
	if inv.CreatedAt == 0 {
		inv.CreatedAt = nowMilli()
	}
	m.state.investments[inv.ID] = *inv
	return nil
}

func (m *MemStore) SaveInvestment(ctx context.Context, inv *domain.Investment) error {
	return m.CreateInvestment(ctx, inv)
}

func (m *MemStore) ListConfirmedInvestments(ctx context.Context, campaignID string) ([]domain.Investment, error) {
	defer m.lockUnlessTx()()
	var out []domain.Investment
	for _, inv := range m.state.investments {
		if inv.CampaignID == campaignID && inv.Status == domain.InvestmentStatusConfirmed {
			out = append(out, inv)
		}
	}
	sortInvestments(out)
	return out, nil
}

// sortInvestments orders by creation time then id so refund allocation is
// deterministic, matching the SQL ORDER BY
func sortInvestments(invs []domain.Investment) {
	for i := 1; i < len(invs); i++ {
		for j := i; j > 0; j-- {
			a, b := invs[j-1], invs[j]
			if a.CreatedAt < b.CreatedAt || (a.CreatedAt == b.CreatedAt && a.ID <= b.ID) {
				break
			}
			invs[j-1], invs[j] = b, a
		}
	}
}

func (m *MemStore) SumConfirmedInvestments(ctx context.Context, campaignID, investorID string) (decimal.Decimal, error) {
	defer m.lockUnlessTx()()
	total := decimal.Zero
	for _, inv := range m.state.investments {
		if inv.CampaignID == campaignID && inv.InvestorID == investorID && inv.Status == domain.InvestmentStatusConfirmed {
			total = total.Add(inv.AmountFc)
		}
	}
	return total, nil
}

func voteKey(milestoneID, investorID string) string {
	return milestoneID + "|" + investorID
}

func (m *MemStore) GetVote(ctx context.Context, milestoneID, investorID string) (*domain.MilestoneVote, error) {
	defer m.lockUnlessTx()()
	v, ok := m.state.votes[voteKey(milestoneID, investorID)]
	if !ok {
		return nil, memNotFound("vote")
	}
	return &v, nil
}

func (m *MemStore) SaveVote(ctx context.Context, v *domain.MilestoneVote) error {
	defer m.lockUnlessTx()()
	ensureID(&v.ID)
	if v.CreatedAt == 0 {
		v.CreatedAt = nowMilli()
	}
	v.UpdatedAt = nowMilli()
	m.state.votes[voteKey(v.MilestoneID, v.InvestorID)] = *v
	return nil
}

func (m *MemStore) ListVotes(ctx context.Context, milestoneID string) ([]domain.MilestoneVote, error) {
	defer m.lockUnlessTx()()
	var out []domain.MilestoneVote
	for _, v := range m.state.votes {
		if v.MilestoneID == milestoneID {
			out = append(out, v)
		}
	}
	return out, nil
}

// PutCampaignUpdate seeds a progress update row
func (m *MemStore) PutCampaignUpdate(u domain.CampaignUpdate) {
	defer m.lockUnlessTx()()
	ensureID(&u.ID)
	m.state.updates[u.CampaignID] = append(m.state.updates[u.CampaignID], u)
}

func (m *MemStore) CountCampaignUpdates(ctx context.Context, campaignID string) (int64, error) {
	defer m.lockUnlessTx()()
	return int64(len(m.state.updates[campaignID])), nil
}

func (m *MemStore) AppendTransaction(ctx context.Context, t *domain.TokenTransaction) error {
	defer m.lockUnlessTx()()
	ensureID(&t.ID)
	if t.CreatedAt == 0 {
		t.CreatedAt = nowMilli()
	}
	m.state.transactions = append(m.state.transactions, *t)
	return nil
}

// Transactions returns a copy of the transaction log for inspection
func (m *MemStore) Transactions() []domain.TokenTransaction {
	defer m.lockUnlessTx()()
	return append([]domain.TokenTransaction(nil), m.state.transactions...)
}

// Investments returns a copy of all investment rows for inspection
func (m *MemStore) Investments() []domain.Investment {
	defer m.lockUnlessTx()()
	var out []domain.Investment
	for _, inv := range m.state.investments {
		out = append(out, inv)
	}
	sortInvestments(out)
	return out
}

func (m *MemStore) GetIdempotencyRecord(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	defer m.lockUnlessTx()()
	rec, ok := m.state.idempotency[key]
	if !ok {
		return nil, memNotFound("idempotency record")
	}
	return &rec, nil
}

func (m *MemStore) PutIdempotencyRecord(ctx context.Context, rec *domain.IdempotencyRecord) error {
	defer m.lockUnlessTx()()
	if _, ok := m.state.idempotency[rec.Key]; ok {
		return fmt.Errorf("idempotency key %q already recorded", rec.Key)
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = nowMilli()
	}
	m.state.idempotency[rec.Key] = *rec
	return nil
}
