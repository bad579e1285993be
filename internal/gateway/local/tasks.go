package local

import (
	"context"
	"fmt"
	"strings"

	"github.com/rezmoss/simpletracker/internal/model"
)

func (g *Gateway) ListTasks(ctx context.Context) ([]model.Task, error) {
	if err := g.begin(ctx, OpListTasks); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	out := make([]model.Task, 0, len(g.data.Tasks))
	for _, t := range g.data.Tasks {
		if t.UserID == g.data.UserID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (g *Gateway) GetTask(ctx context.Context, id string) (*model.Task, error) {
	if err := g.begin(ctx, OpGetTask); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	if i := g.taskIndex(id); i >= 0 {
		t := g.data.Tasks[i]
		return &t, nil
	}
	return nil, nil
}

func (g *Gateway) GetTaskByAltCode(ctx context.Context, altCode string) (*model.Task, error) {
	if err := g.begin(ctx, OpGetTaskByAltCode); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	if t, ok := g.taskByAltCode(altCode); ok {
		return &t, nil
	}
	return nil, nil
}

func (g *Gateway) CreateTask(ctx context.Context, name, altCode string) (model.Task, error) {
	if err := g.beginWrite(ctx, OpCreateTask); err != nil {
		return model.Task{}, err
	}
	defer g.mu.Unlock()

	t, err := g.insertTask(name, altCode)
	if err != nil {
		return model.Task{}, err
	}
	return t, g.commit()
}

// insertTask stores a new task. alt_code stays empty when not given, as the
// table itself does not default it. Callers hold mu.
func (g *Gateway) insertTask(name, altCode string) (model.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Task{}, fmt.Errorf("tasks: name is required")
	}
	if altCode != "" {
		if _, taken := g.taskByAltCode(altCode); taken {
			return model.Task{}, fmt.Errorf("tasks: alt_code %q already in use", altCode)
		}
	}
	t := model.Task{
		ID:        newID(),
		Name:      name,
		AltCode:   altCode,
		CreatedAt: g.now(),
		UserID:    g.data.UserID,
	}
	g.data.Tasks = append(g.data.Tasks, t)
	return t, nil
}

func (g *Gateway) UpdateTask(ctx context.Context, task model.Task) error {
	if err := g.beginWrite(ctx, OpUpdateTask); err != nil {
		return err
	}
	defer g.mu.Unlock()

	i := g.taskIndex(task.ID)
	if i < 0 {
		return fmt.Errorf("tasks: no row with id %q", task.ID)
	}
	alt := strings.TrimSpace(task.AltCode)
	if other, taken := g.taskByAltCode(alt); taken && other.ID != task.ID {
		return fmt.Errorf("tasks: alt_code %q already in use", alt)
	}
	cur := &g.data.Tasks[i]
	cur.Name = strings.TrimSpace(task.Name)
	cur.AltCode = alt
	cur.IsFavorite = task.IsFavorite
	return g.commit()
}

func (g *Gateway) ListFavorites(ctx context.Context) ([]model.Task, error) {
	if err := g.begin(ctx, OpListFavorites); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	var out []model.Task
	for _, t := range g.data.Tasks {
		if t.IsFavorite && t.UserID == g.data.UserID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (g *Gateway) taskIndex(id string) int {
	for i, t := range g.data.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (g *Gateway) taskByAltCode(altCode string) (model.Task, bool) {
	if altCode == "" {
		return model.Task{}, false
	}
	for _, t := range g.data.Tasks {
		if t.AltCode == altCode && t.UserID == g.data.UserID {
			return t, true
		}
	}
	return model.Task{}, false
}
