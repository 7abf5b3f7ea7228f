package models

import "time"

// TournamentPhase — производное состояние турнира, вычисляемое из окон
// расписания, а не хранимое в БД. Это исключает рассинхронизацию между
// часами и сохранённым полем статуса.
type TournamentPhase string

const (
	PhaseCreated            TournamentPhase = "created"
	PhaseRegistration       TournamentPhase = "registration"
	PhaseRegistrationClosed TournamentPhase = "registration_closed"
	PhaseInProgress         TournamentPhase = "in_progress"
	PhaseFinished           TournamentPhase = "finished"
)

// Schedule holds the two half-open time windows of a tournament:
// [Registration.Start, Registration.End) and [Matches.Start, Matches.End).
type Schedule struct {
	Registration Window `json:"registration"`
	Matches      Window `json:"matches"`
}

type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window is ordered: Start strictly before End.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.Start.Before(w.End)
}

// Contains reports whether now falls inside [Start, End).
func (w Window) Contains(now time.Time) bool {
	return !now.Before(w.Start) && now.Before(w.End)
}

// Tournament представляет турнир.
type Tournament struct {
	ID          int       `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	GameID      int       `json:"game_id" db:"game_id"`
	Schedule    Schedule  `json:"schedule" db:"-"`
	PlayerLimit int       `json:"player_limit" db:"player_limit"`
	TeamBased   bool      `json:"team_based" db:"team_based"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	BannerKey *string `json:"-" db:"banner_key"`
	BannerURL *string `json:"banner_url,omitempty" db:"-"`

	// CurrentPhase вычисляется сервисом на момент чтения, в БД не хранится.
	CurrentPhase TournamentPhase `json:"phase,omitempty" db:"-"`

	Result *TournamentResult `json:"result,omitempty" db:"-"`

	// Ровно одно из двух заполняется в зависимости от TeamBased.
	Players []User           `json:"players,omitempty" db:"-"`
	Teams   []TournamentTeam `json:"teams,omitempty" db:"-"`

	Game *Game `json:"game,omitempty" db:"-"`
}

// TournamentTeam is a snapshot of a team taken at join time. Later changes to
// the source team's roster do not alter the tournament entry.
type TournamentTeam struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	OwnerID      int       `json:"owner_id" db:"owner_id"`
	MemberIDs    []int     `json:"member_ids" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TournamentResult хранит до трёх призовых мест (ссылки на пользователей).
type TournamentResult struct {
	First  *int `json:"first,omitempty" db:"first_place_id"`
	Second *int `json:"second,omitempty" db:"second_place_id"`
	Third  *int `json:"third,omitempty" db:"third_place_id"`
}

// Phase derives the lifecycle state of the tournament at the given instant.
func (t *Tournament) Phase(now time.Time) TournamentPhase {
	switch {
	case now.Before(t.Schedule.Registration.Start):
		return PhaseCreated
	case now.Before(t.Schedule.Registration.End):
		return PhaseRegistration
	case now.Before(t.Schedule.Matches.Start):
		return PhaseRegistrationClosed
	case now.Before(t.Schedule.Matches.End):
		return PhaseInProgress
	default:
		return PhaseFinished
	}
}

// RegistrationOpenAt reports whether joining is permitted at the given instant.
func (t *Tournament) RegistrationOpenAt(now time.Time) bool {
	return t.Schedule.Registration.Contains(now)
}
