package services

import (
	"context"
	"fmt"

	"github.com/playverse/playverse-backend/repositories"
)

// CleanupHook выполняет один побочный эффект удаления сущности. Хуки
// регистрируются явно, поэтому весь набор каскадных эффектов перечислим и
// тестируем, в отличие от неявных хуков жизненного цикла ORM.
type CleanupHook struct {
	Name string
	Run  func(ctx context.Context, exec repositories.SQLExecutor, entityID int) error
}

// CleanupRegistry хранит списки хуков по типу сущности.
type CleanupRegistry struct {
	hooks map[string][]CleanupHook
}

func NewCleanupRegistry() *CleanupRegistry {
	return &CleanupRegistry{hooks: make(map[string][]CleanupHook)}
}

func (r *CleanupRegistry) Register(entityType string, hook CleanupHook) {
	r.hooks[entityType] = append(r.hooks[entityType], hook)
}

func (r *CleanupRegistry) Hooks(entityType string) []CleanupHook {
	return r.hooks[entityType]
}

// RunAll прогоняет хуки в порядке регистрации. Первая ошибка прерывает
// выполнение: вызывающая сторона держит всё в одной транзакции.
func (r *CleanupRegistry) RunAll(ctx context.Context, exec repositories.SQLExecutor, entityType string, entityID int) error {
	for _, hook := range r.hooks[entityType] {
		if err := hook.Run(ctx, exec, entityID); err != nil {
			return fmt.Errorf("cleanup hook %s for %s %d: %w", hook.Name, entityType, entityID, err)
		}
	}
	return nil
}
