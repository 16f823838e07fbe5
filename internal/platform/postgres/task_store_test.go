package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/store"
)

func TestBuildTaskFilter(t *testing.T) {
	t.Parallel()

	t.Run("empty filter produces no clause", func(t *testing.T) {
		t.Parallel()
		where, args := buildTaskFilter(store.TaskFilter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("status only", func(t *testing.T) {
		t.Parallel()
		where, args := buildTaskFilter(store.TaskFilter{Status: domain.StatusPending})
		assert.Equal(t, " WHERE status = $1", where)
		assert.Equal(t, []interface{}{domain.StatusPending}, args)
	})

	t.Run("all fields combine with AND and number sequentially", func(t *testing.T) {
		t.Parallel()
		after := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		before := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
		where, args := buildTaskFilter(store.TaskFilter{
			Status:    domain.StatusCompleted,
			Priority:  domain.PriorityHigh,
			DueAfter:  after,
			DueBefore: before,
		})
		assert.Equal(t,
			" WHERE status = $1 AND priority = $2 AND due_date >= $3 AND due_date <= $4",
			where)
		assert.Len(t, args, 4)
		assert.Equal(t, after, args[2])
		assert.Equal(t, before, args[3])
	})
}

func TestBuildTaskOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sort store.TaskSort
		want string
	}{
		{"empty field falls back to created_at", store.TaskSort{}, "created_at ASC"},
		{"unknown field falls back to created_at", store.TaskSort{Field: "id; DROP TABLE tasks"}, "created_at ASC"},
		{"dueDate maps to due_date", store.TaskSort{Field: "dueDate"}, "due_date ASC"},
		{"descending", store.TaskSort{Field: "priority", Descending: true}, "priority DESC"},
		{"title ascending", store.TaskSort{Field: "title"}, "title ASC"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, buildTaskOrder(tc.sort))
		})
	}
}
