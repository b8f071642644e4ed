package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
)

// fakeTxRunner runs the function directly. Repositories below ignore the
// executor, so passing nil is fine.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) add(id string, points int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = &models.User{ID: id, Email: id + "@example.com", Points: points, Role: models.RoleUser}
}

func (r *fakeUserRepo) points(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].Points
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.User, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

func (r *fakeUserRepo) UpdatePoints(_ context.Context, _ repositories.SQLExecutor, id string, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Points = points
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, _ repositories.SQLExecutor, id string, role models.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeGameRepo struct {
	mu      sync.Mutex
	games   map[string]*models.Game
	players map[string][]models.GamePlayer
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{
		games:   make(map[string]*models.Game),
		players: make(map[string][]models.GamePlayer),
	}
}

func (r *fakeGameRepo) Create(_ context.Context, _ repositories.SQLExecutor, g *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *g
	r.games[g.ID] = &clone
	return nil
}

func (r *fakeGameRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	clone := *g
	return &clone, nil
}

func (r *fakeGameRepo) ListByStatus(_ context.Context, status *models.GameStatus) ([]models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	games := []models.Game{}
	for _, g := range r.games {
		if status == nil || g.Status == *status {
			games = append(games, *g)
		}
	}
	return games, nil
}

func (r *fakeGameRepo) ListOpenBefore(_ context.Context, cutoff sql.NullTime) ([]models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	games := []models.Game{}
	for _, g := range r.games {
		if g.Status != models.GameStatusOpen {
			continue
		}
		if cutoff.Valid && !g.CreatedAt.Before(cutoff.Time) {
			continue
		}
		games = append(games, *g)
	}
	return games, nil
}

func (r *fakeGameRepo) ListPlayers(_ context.Context, _ repositories.SQLExecutor, gameID string) ([]models.GamePlayer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]models.GamePlayer, len(r.players[gameID]))
	copy(players, r.players[gameID])
	return players, nil
}

func (r *fakeGameRepo) AddPlayer(_ context.Context, _ repositories.SQLExecutor, p *models.GamePlayer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.GameID] = append(r.players[p.GameID], *p)
	return nil
}

func (r *fakeGameRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id string, status models.GameStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.Status = status
	return nil
}

func (r *fakeGameRepo) SetWinnerTeam(_ context.Context, _ repositories.SQLExecutor, id string, team int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.WinnerTeam = &team
	return nil
}

func (r *fakeGameRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(r.games, id)
	delete(r.players, id)
	return nil
}

type fakeEscrowRepo struct {
	mu      sync.Mutex
	escrows map[string][]models.WagerEscrow
}

func newFakeEscrowRepo() *fakeEscrowRepo {
	return &fakeEscrowRepo{escrows: make(map[string][]models.WagerEscrow)}
}

func (r *fakeEscrowRepo) Create(_ context.Context, _ repositories.SQLExecutor, e *models.WagerEscrow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.escrows[e.GameID] = append(r.escrows[e.GameID], *e)
	return nil
}

func (r *fakeEscrowRepo) ListByGame(_ context.Context, _ repositories.SQLExecutor, gameID string) ([]models.WagerEscrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	escrows := make([]models.WagerEscrow, len(r.escrows[gameID]))
	copy(escrows, r.escrows[gameID])
	return escrows, nil
}

func (r *fakeEscrowRepo) UpdateStatusByGame(_ context.Context, _ repositories.SQLExecutor, gameID string, from, to models.EscrowStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	list := r.escrows[gameID]
	for i := range list {
		if list[i].Status == from {
			list[i].Status = to
			affected++
		}
	}
	return affected, nil
}

func (r *fakeEscrowRepo) DeleteByGame(_ context.Context, _ repositories.SQLExecutor, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.escrows, gameID)
	return nil
}

type fakeTransactionRepo struct {
	mu           sync.Mutex
	transactions []models.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{}
}

func (r *fakeTransactionRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, *t)
	return nil
}

func (r *fakeTransactionRepo) ListByUser(_ context.Context, userID string) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := []models.Transaction{}
	for _, t := range r.transactions {
		if t.UserID == userID {
			list = append(list, t)
		}
	}
	return list, nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[string]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[string]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *t
	r.tournaments[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTournamentRepo) List(_ context.Context) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		list = append(list, *t)
	}
	return list, nil
}

func (r *fakeTournamentRepo) CloseRegistration(_ context.Context, _ repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if !t.RegistrationOpen {
		return repositories.ErrRegistrationAlreadyDone
	}
	t.RegistrationOpen = false
	return nil
}

func (r *fakeTournamentRepo) SetWinner(_ context.Context, _ repositories.SQLExecutor, id string, registrationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.WinnerRegistrationID = &registrationID
	return nil
}

type fakeRegistrationRepo struct {
	mu            sync.Mutex
	registrations []models.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{}
}

func (r *fakeRegistrationRepo) Create(_ context.Context, _ repositories.SQLExecutor, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, *reg)
	return nil
}

func (r *fakeRegistrationRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.ID == id {
			clone := reg
			return &clone, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID string) ([]models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := []models.Registration{}
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID {
			list = append(list, reg)
		}
	}
	return list, nil
}

func (r *fakeRegistrationRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) (int, error) {
	list, _ := r.ListByTournament(ctx, exec, tournamentID)
	return len(list), nil
}

func (r *fakeRegistrationRepo) ExistsForUser(_ context.Context, _ repositories.SQLExecutor, tournamentID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[string]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[string]*models.Match)}
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *m
	r.matches[m.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID string) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := []models.Match{}
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			list = append(list, *m)
		}
	}
	sortMatches(list)
	return list, nil
}

func (r *fakeMatchRepo) ListByRound(_ context.Context, _ repositories.SQLExecutor, tournamentID string, round int) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := []models.Match{}
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Round == round {
			list = append(list, *m)
		}
	}
	sortMatches(list)
	return list, nil
}

func sortMatches(list []models.Match) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Round != list[j].Round {
			return list[i].Round < list[j].Round
		}
		return list[i].Slot < list[j].Slot
	})
}

func (r *fakeMatchRepo) ListUnverifiedByRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID string, round int) ([]models.Match, error) {
	all, _ := r.ListByRound(ctx, exec, tournamentID, round)
	list := []models.Match{}
	for _, m := range all {
		if m.State != models.MatchVerified {
			list = append(list, m)
		}
	}
	return list, nil
}

func (r *fakeMatchRepo) MaxRound(_ context.Context, _ repositories.SQLExecutor, tournamentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Round > max {
			max = m.Round
		}
	}
	return max, nil
}

func (r *fakeMatchRepo) UpdateEvidence(_ context.Context, _ repositories.SQLExecutor, id string, evidenceRef string, state models.MatchState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if m.State == models.MatchVerified {
		return repositories.ErrMatchAlreadyVerified
	}
	m.EvidenceRef = &evidenceRef
	m.State = state
	return nil
}

func (r *fakeMatchRepo) SetVerified(_ context.Context, _ repositories.SQLExecutor, id string, winnerRegistrationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if m.State == models.MatchVerified {
		return repositories.ErrMatchAlreadyVerified
	}
	m.WinnerID = &winnerRegistrationID
	m.State = models.MatchVerified
	return nil
}

type fakeStoreRepo struct {
	mu          sync.Mutex
	items       map[string]*models.StoreItem
	redemptions []models.Redemption
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{items: make(map[string]*models.StoreItem)}
}

func (r *fakeStoreRepo) CreateItem(_ context.Context, item *models.StoreItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *item
	r.items[item.ID] = &clone
	return nil
}

func (r *fakeStoreRepo) GetItem(_ context.Context, _ repositories.SQLExecutor, id string) (*models.StoreItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrStoreItemNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *fakeStoreRepo) ListItems(_ context.Context) ([]models.StoreItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]models.StoreItem, 0, len(r.items))
	for _, item := range r.items {
		list = append(list, *item)
	}
	return list, nil
}

func (r *fakeStoreRepo) CreateRedemption(_ context.Context, _ repositories.SQLExecutor, red *models.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redemptions = append(r.redemptions, *red)
	return nil
}

func (r *fakeStoreRepo) ListRedemptions(_ context.Context) ([]models.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]models.Redemption, len(r.redemptions))
	copy(list, r.redemptions)
	return list, nil
}

type publishedEvent struct {
	eventType string
	entityID  string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{}
}

func (p *fakePublisher) BalanceChanged(userID string, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{EventBalanceChanged, userID})
}

func (p *fakePublisher) GameStatusChanged(game *models.Game) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{EventGameStatusChanged, game.ID})
}

func (p *fakePublisher) BracketAdvanced(tournamentID string, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{EventBracketAdvanced, tournamentID})
}

func (p *fakePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}
