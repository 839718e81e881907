package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"task-portal/domain/chat"
	"task-portal/errors"
)

type ITaskRepository interface {
	Create(ctx context.Context, title, description string, assignedBy, assignedTo int64) error
	ListAssignedTo(ctx context.Context, userID int64) ([]chat.Task, error)
	Delete(ctx context.Context, taskID, assignedTo int64) (int64, error)
}

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return TaskRepository{db: db}
}

func (t TaskRepository) Create(ctx context.Context, title, description string, assignedBy, assignedTo int64) error {
	const q = `INSERT INTO tasks (title, description, assigned_by, assigned_to) VALUES (?, ?, ?, ?);`
	if _, err := t.db.ExecContext(ctx, q, title, description, assignedBy, assignedTo); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

// ListAssignedTo returns the caller's dashboard: tasks assigned to them,
// newest first, with the assigner's display name resolved.
func (t TaskRepository) ListAssignedTo(ctx context.Context, userID int64) ([]chat.Task, error) {
	const q = `
SELECT t.id, t.title, t.description, t.assigned_by, t.assigned_to, u.name, t.created_at
FROM tasks t
JOIN users u ON t.assigned_by = u.id
WHERE t.assigned_to = ?
ORDER BY t.created_at DESC, t.id DESC;
`
	rows, err := t.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer rows.Close()

	var tasks []chat.Task
	for rows.Next() {
		var task chat.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description,
			&task.AssignedBy, &task.AssignedTo, &task.AssignedByName, &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return tasks, nil
}

// Delete removes a task, only its assignee may delete it.
func (t TaskRepository) Delete(ctx context.Context, taskID, assignedTo int64) (int64, error) {
	const q = `DELETE FROM tasks WHERE id = ? AND assigned_to = ?;`
	res, err := t.db.ExecContext(ctx, q, taskID, assignedTo)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return affected, nil
}
