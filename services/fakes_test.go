package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

// In-memory фейки репозиториев. Конкурентно-безопасны, чтобы гонять через них
// параллельные сценарии.

type fakeUploader struct {
	mu       sync.Mutex
	objects  map[string]string // key -> content type
	deleted  []string
	failNext bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string]string)}
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, fmt.Errorf("upload failed")
	}
	f.objects[key] = contentType
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeUserRepo struct {
	mu            sync.Mutex
	nextID        int
	users         map[int]*models.User
	verifications map[string]*models.EmailVerification
	resets        map[string]*models.PasswordReset
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:        1,
		users:         make(map[int]*models.User),
		verifications: make(map[string]*models.EmailVerification),
		resets:        make(map[string]*models.PasswordReset),
	}
}

func (f *fakeUserRepo) addUser(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	u.CreatedAt = time.Now()
	f.users[u.ID] = &u
	return &u
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.UserName == user.UserName {
			return repositories.ErrUserUserNameConflict
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserName == userName {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = avatarKey
	return nil
}

func (f *fakeUserRepo) UpdateCoverKey(ctx context.Context, userID int, coverKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.CoverKey = coverKey
	return nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, userID int, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) MarkEmailVerified(ctx context.Context, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.EmailVerified = true
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CreateEmailVerification(ctx context.Context, v *models.EmailVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *v
	f.verifications[v.Token] = &copied
	return nil
}

func (f *fakeUserRepo) GetEmailVerification(ctx context.Context, token string) (*models.EmailVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.verifications[token]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *v
	return &copied, nil
}

func (f *fakeUserRepo) DeleteEmailVerification(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.verifications, token)
	return nil
}

func (f *fakeUserRepo) CreatePasswordReset(ctx context.Context, pr *models.PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *pr
	f.resets[pr.Token] = &copied
	return nil
}

func (f *fakeUserRepo) GetPasswordReset(ctx context.Context, token string) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.resets[token]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *pr
	return &copied, nil
}

func (f *fakeUserRepo) DeletePasswordReset(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.resets, token)
	return nil
}

func (f *fakeUserRepo) DeleteTokens(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, v := range f.verifications {
		if v.UserID == userID {
			delete(f.verifications, token)
		}
	}
	for token, pr := range f.resets {
		if pr.UserID == userID {
			delete(f.resets, token)
		}
	}
	return nil
}

type fakeGameRepo struct {
	mu     sync.Mutex
	nextID int
	games  map[int]*models.Game
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{nextID: 1, games: make(map[int]*models.Game)}
}

func (f *fakeGameRepo) addGame(g models.Game) *models.Game {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.ID = f.nextID
	f.nextID++
	f.games[g.ID] = &g
	return &g
}

func (f *fakeGameRepo) Create(ctx context.Context, game *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	game.ID = f.nextID
	f.nextID++
	game.CreatedAt = time.Now()
	copied := *game
	f.games[game.ID] = &copied
	return nil
}

func (f *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGameRepo) GetAll(ctx context.Context) ([]models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	games := make([]models.Game, 0, len(f.games))
	for _, g := range f.games {
		games = append(games, *g)
	}
	return games, nil
}

func (f *fakeGameRepo) Exists(ctx context.Context, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.games[id]
	return ok, nil
}

func (f *fakeGameRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(f.games, id)
	return nil
}

type fakeTeamRepo struct {
	mu      sync.Mutex
	nextID  int
	teams   map[int]*models.Team
	members map[int][]int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{nextID: 1, teams: make(map[int]*models.Team), members: make(map[int][]int)}
}

func (f *fakeTeamRepo) addTeam(t models.Team, memberIDs ...int) *models.Team {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.nextID
	f.nextID++
	f.teams[t.ID] = &t
	f.members[t.ID] = append([]int{t.OwnerID}, memberIDs...)
	return &t
}

func (f *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.teams {
		if existing.OwnerID == team.OwnerID {
			return repositories.ErrTeamOwnerConflict
		}
	}
	team.ID = f.nextID
	f.nextID++
	team.CreatedAt = time.Now()
	copied := *team
	f.teams[team.ID] = &copied
	f.members[team.ID] = []int{team.OwnerID}
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTeamRepo) FindByOwner(ctx context.Context, ownerID int) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teams {
		if t.OwnerID == ownerID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) ListMemberIDs(ctx context.Context, teamID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.members[teamID]...), nil
}

func (f *fakeTeamRepo) AddMember(ctx context.Context, teamID, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	for _, id := range f.members[teamID] {
		if id == userID {
			return repositories.ErrTeamMemberConflict
		}
	}
	if len(f.members[teamID]) >= t.MemberLimit {
		return repositories.ErrTeamFull
	}
	f.members[teamID] = append(f.members[teamID], userID)
	return nil
}

func (f *fakeTeamRepo) DetachUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, team := range f.teams {
		if team.OwnerID == userID {
			delete(f.teams, id)
			delete(f.members, id)
		}
	}
	for id, members := range f.members {
		kept := members[:0]
		for _, memberID := range members {
			if memberID != userID {
				kept = append(kept, memberID)
			}
		}
		f.members[id] = kept
	}
	return nil
}

func (f *fakeTeamRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(f.teams, id)
	delete(f.members, id)
	return nil
}

type fakeTournamentRepo struct {
	mu      sync.Mutex
	nextID  int
	items   map[int]*models.Tournament
	players map[int][]int
	teams   map[int][]models.TournamentTeam
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		nextID:  1,
		items:   make(map[int]*models.Tournament),
		players: make(map[int][]int),
		teams:   make(map[int][]models.TournamentTeam),
	}
}

func (f *fakeTournamentRepo) addTournament(t models.Tournament) *models.Tournament {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.nextID
	f.nextID++
	f.items[t.ID] = &t
	return &t
}

func (f *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Title == t.Title {
			return repositories.ErrTournamentTitleConflict
		}
	}
	t.ID = f.nextID
	f.nextID++
	t.CreatedAt = time.Now()
	copied := *t
	f.items[t.ID] = &copied
	return nil
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTournamentRepo) GetByIDAndOwner(ctx context.Context, id, ownerID int) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok || t.OwnerID != ownerID {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.Tournament, 0)
	for _, t := range f.items {
		if filter.GameID != nil && t.GameID != *filter.GameID {
			continue
		}
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.TeamBased != nil && t.TeamBased != *filter.TeamBased {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (f *fakeTournamentRepo) UpdateDetails(ctx context.Context, id int, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Title = title
	t.Description = description
	return nil
}

func (f *fakeTournamentRepo) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	return nil
}

func (f *fakeTournamentRepo) UpdateResult(ctx context.Context, id int, result models.TournamentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	copied := result
	t.Result = &copied
	return nil
}

func (f *fakeTournamentRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTournamentRepo) AddPlayer(ctx context.Context, tournamentID, userID, playerLimit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[tournamentID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	for _, id := range f.players[tournamentID] {
		if id == userID {
			return repositories.ErrTournamentPlayerConflict
		}
	}
	if len(f.players[tournamentID]) >= playerLimit {
		return repositories.ErrTournamentCapacityReached
	}
	f.players[tournamentID] = append(f.players[tournamentID], userID)
	return nil
}

func (f *fakeTournamentRepo) AddTeamSnapshot(ctx context.Context, exec repositories.SQLExecutor, snapshot *models.TournamentTeam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[snapshot.TournamentID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	for _, existing := range f.teams[snapshot.TournamentID] {
		if existing.OwnerID == snapshot.OwnerID {
			return repositories.ErrTournamentTeamConflict
		}
	}
	snapshot.ID = f.nextID
	f.nextID++
	snapshot.CreatedAt = time.Now()
	f.teams[snapshot.TournamentID] = append(f.teams[snapshot.TournamentID], *snapshot)
	return nil
}

func (f *fakeTournamentRepo) ListPlayers(ctx context.Context, tournamentID int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	players := make([]models.User, 0, len(f.players[tournamentID]))
	for _, id := range f.players[tournamentID] {
		players = append(players, models.User{ID: id})
	}
	return players, nil
}

func (f *fakeTournamentRepo) ListTeams(ctx context.Context, tournamentID int) ([]models.TournamentTeam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TournamentTeam(nil), f.teams[tournamentID]...), nil
}

func (f *fakeTournamentRepo) DeleteRegistrations(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.players, tournamentID)
	delete(f.teams, tournamentID)
	return nil
}

func (f *fakeTournamentRepo) ListIDsByOwner(ctx context.Context, exec repositories.SQLExecutor, ownerID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int
	for id, t := range f.items {
		if t.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (f *fakeTournamentRepo) DetachUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, players := range f.players {
		kept := players[:0]
		for _, playerID := range players {
			if playerID != userID {
				kept = append(kept, playerID)
			}
		}
		f.players[id] = kept
	}
	for id, snapshots := range f.teams {
		kept := snapshots[:0]
		for _, snapshot := range snapshots {
			if snapshot.OwnerID != userID {
				kept = append(kept, snapshot)
			}
		}
		f.teams[id] = kept
	}
	for _, t := range f.items {
		if t.Result == nil {
			continue
		}
		for _, place := range []**int{&t.Result.First, &t.Result.Second, &t.Result.Third} {
			if *place != nil && **place == userID {
				*place = nil
			}
		}
		if t.Result.First == nil && t.Result.Second == nil && t.Result.Third == nil {
			t.Result = nil
		}
	}
	return nil
}

type relationKey struct {
	subjectID int
	kind      models.RelationKind
	objectID  int
}

type fakeRelationRepo struct {
	mu        sync.Mutex
	relations map[relationKey]bool
}

func newFakeRelationRepo() *fakeRelationRepo {
	return &fakeRelationRepo{relations: make(map[relationKey]bool)}
}

func (f *fakeRelationRepo) DeleteByKey(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := relationKey{subjectID, kind, objectID}
	if f.relations[key] {
		delete(f.relations, key)
		return true, nil
	}
	return false, nil
}

func (f *fakeRelationRepo) InsertIfAbsent(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := relationKey{subjectID, kind, objectID}
	if f.relations[key] {
		return false, nil
	}
	f.relations[key] = true
	return true, nil
}

func (f *fakeRelationRepo) Exists(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.relations[relationKey{subjectID, kind, objectID}], nil
}

func (f *fakeRelationRepo) CountByObject(ctx context.Context, kind models.RelationKind, objectID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key := range f.relations {
		if key.kind == kind && key.objectID == objectID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRelationRepo) DeleteAllBySubject(ctx context.Context, exec repositories.SQLExecutor, subjectID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.relations {
		if key.subjectID == subjectID {
			delete(f.relations, key)
		}
	}
	return nil
}

func (f *fakeRelationRepo) DeleteAllByObject(ctx context.Context, exec repositories.SQLExecutor, kind models.RelationKind, objectID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.relations {
		if key.kind == kind && key.objectID == objectID {
			delete(f.relations, key)
		}
	}
	return nil
}

type fakeVideoRepo struct {
	mu     sync.Mutex
	nextID int
	videos map[int]*models.Video
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{nextID: 1, videos: make(map[int]*models.Video)}
}

func (f *fakeVideoRepo) addVideo(v models.Video) *models.Video {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = f.nextID
	f.nextID++
	f.videos[v.ID] = &v
	return &v
}

func (f *fakeVideoRepo) Create(ctx context.Context, v *models.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = f.nextID
	f.nextID++
	v.CreatedAt = time.Now()
	copied := *v
	f.videos[v.ID] = &copied
	return nil
}

func (f *fakeVideoRepo) GetByID(ctx context.Context, id int) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, repositories.ErrVideoNotFound
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVideoRepo) GetDetails(ctx context.Context, id, viewerID int) (*models.VideoDetails, error) {
	v, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.VideoDetails{Video: *v}, nil
}

func (f *fakeVideoRepo) List(ctx context.Context, filter repositories.ListVideosFilter) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.Video, 0)
	for _, v := range f.videos {
		if v.IsPublished {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (f *fakeVideoRepo) ListByOwner(ctx context.Context, ownerID int) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.Video, 0)
	for _, v := range f.videos {
		if v.OwnerID == ownerID {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (f *fakeVideoRepo) ListLikedBy(ctx context.Context, subjectID int) ([]models.Video, error) {
	return nil, nil
}

func (f *fakeVideoRepo) IncrementViews(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return repositories.ErrVideoNotFound
	}
	v.Views++
	return nil
}

func (f *fakeVideoRepo) UpdateDetails(ctx context.Context, id int, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return repositories.ErrVideoNotFound
	}
	v.Title = title
	v.Description = description
	return nil
}

func (f *fakeVideoRepo) UpdateThumbnailKey(ctx context.Context, id int, thumbnailKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return repositories.ErrVideoNotFound
	}
	v.ThumbnailKey = thumbnailKey
	return nil
}

func (f *fakeVideoRepo) TogglePublished(ctx context.Context, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return false, repositories.ErrVideoNotFound
	}
	v.IsPublished = !v.IsPublished
	return v.IsPublished, nil
}

func (f *fakeVideoRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.videos[id]; !ok {
		return repositories.ErrVideoNotFound
	}
	delete(f.videos, id)
	return nil
}

func (f *fakeVideoRepo) DeleteAllByOwner(ctx context.Context, exec repositories.SQLExecutor, ownerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, v := range f.videos {
		if v.OwnerID == ownerID {
			delete(f.videos, id)
		}
	}
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	nextID   int
	comments map[int]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1, comments: make(map[int]*models.Comment)}
}

func (f *fakeCommentRepo) addComment(c models.Comment) *models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.nextID
	f.nextID++
	f.comments[c.ID] = &c
	return &c
}

func (f *fakeCommentRepo) Create(ctx context.Context, c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.nextID
	f.nextID++
	c.CreatedAt = time.Now()
	copied := *c
	f.comments[c.ID] = &copied
	return nil
}

func (f *fakeCommentRepo) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, repositories.ErrCommentNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCommentRepo) ListByVideo(ctx context.Context, videoID, viewerID, limit, offset int) ([]models.CommentView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.CommentView, 0)
	for _, c := range f.comments {
		if c.VideoID == videoID {
			result = append(result, models.CommentView{Comment: *c})
		}
	}
	return result, nil
}

func (f *fakeCommentRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return repositories.ErrCommentNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentRepo) DeleteAllByVideo(ctx context.Context, exec repositories.SQLExecutor, videoID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.comments {
		if c.VideoID == videoID {
			delete(f.comments, id)
		}
	}
	return nil
}

func (f *fakeCommentRepo) DeleteAllByOwner(ctx context.Context, exec repositories.SQLExecutor, ownerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.comments {
		if c.OwnerID == ownerID {
			delete(f.comments, id)
		}
	}
	return nil
}

type fakePostRepo struct {
	mu     sync.Mutex
	nextID int
	posts  map[int]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{nextID: 1, posts: make(map[int]*models.Post)}
}

func (f *fakePostRepo) addPost(p models.Post) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID
	f.nextID++
	f.posts[p.ID] = &p
	return &p
}

func (f *fakePostRepo) Create(ctx context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now()
	copied := *p
	f.posts[p.ID] = &copied
	return nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostRepo) ListByOwner(ctx context.Context, ownerID, viewerID int) ([]models.PostView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.PostView, 0)
	for _, p := range f.posts {
		if p.OwnerID == ownerID {
			result = append(result, models.PostView{Post: *p})
		}
	}
	return result, nil
}

func (f *fakePostRepo) ListAll(ctx context.Context, viewerID int) ([]models.PostView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.PostView, 0)
	for _, p := range f.posts {
		result = append(result, models.PostView{Post: *p})
	}
	return result, nil
}

func (f *fakePostRepo) UpdateContent(ctx context.Context, id int, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return repositories.ErrPostNotFound
	}
	p.Content = content
	return nil
}

func (f *fakePostRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) DeleteAllByOwner(ctx context.Context, exec repositories.SQLExecutor, ownerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.posts {
		if p.OwnerID == ownerID {
			delete(f.posts, id)
		}
	}
	return nil
}

type fakeProfileRepo struct {
	stats     map[int]models.ProfileStats
	followers map[int][]models.FollowerEntry
	following map[int][]models.FollowingEntry
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		stats:     make(map[int]models.ProfileStats),
		followers: make(map[int][]models.FollowerEntry),
		following: make(map[int][]models.FollowingEntry),
	}
}

func (f *fakeProfileRepo) Stats(ctx context.Context, userID int) (*models.ProfileStats, error) {
	stats := f.stats[userID] // нулевая статистика для незнакомого профиля
	return &stats, nil
}

func (f *fakeProfileRepo) ListFollowers(ctx context.Context, channelID int) ([]models.FollowerEntry, error) {
	return f.followers[channelID], nil
}

func (f *fakeProfileRepo) ListFollowing(ctx context.Context, followerID int) ([]models.FollowingEntry, error) {
	return f.following[followerID], nil
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []string // адреса получателей
}

func (f *fakeEmailSender) SendEmail(to []string, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to...)
	return nil
}
