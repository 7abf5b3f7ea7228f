package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed          = errors.New("validation failed")
	ErrPasswordTooShort          = errors.New("password is too short")
	ErrTitleAndDescriptionNeeded = errors.New("title and description are required together")
	ErrSelfFollowForbidden       = errors.New("cannot follow your own channel")

	// Турниры
	ErrTournamentTitleRequired      = errors.New("tournament title is required")
	ErrTournamentInvalidSchedule    = errors.New("registration and match windows must each start before they end")
	ErrTournamentInvalidPlayerLimit = errors.New("tournament player limit must be positive")
	ErrRegistrationNotOpen          = errors.New("tournament registration has not opened yet")
	ErrRegistrationClosed           = errors.New("tournament registration is closed")
	ErrAlreadyJoined                = errors.New("already joined this tournament")
	ErrTournamentFull               = errors.New("tournament player limit reached")
	ErrNoOwnedTeam                  = errors.New("you do not own a team")
	ErrTournamentResultTooLong      = errors.New("a tournament result holds at most three places")

	// Ошибки конфликтов
	ErrUserEmailConflict       = errors.New("email address is already in use")
	ErrUserNameConflict        = errors.New("user name is already in use")
	ErrTeamOwnerConflict       = errors.New("you already own a team")
	ErrTeamMemberConflict      = errors.New("user is already a member of this team")
	ErrTeamFull                = errors.New("team member limit reached")
	ErrTournamentTitleConflict = errors.New("tournament with this title already exists")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrTokenInvalid       = errors.New("invalid or expired token")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrVideoNotFound      = errors.New("video not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")

	// Сбои внешних систем. Детали стораджа и медиахоста наружу не утекают.
	ErrUploadFailed = errors.New("failed to upload media asset")
	ErrUnavailable  = errors.New("a dependent service is unavailable")
)
