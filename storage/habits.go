package storage

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

const habitPartition = "habit"

// HabitStore is the create/list/delete contract behind the habit routes.
type HabitStore interface {
	ListHabits(ctx context.Context) ([]domain.Habit, error)
	CreateHabit(ctx context.Context, h domain.Habit) error
	DeleteHabit(ctx context.Context, id string) error
}

// TableHabits keeps habits in an Azure table, one entity per habit.
type TableHabits struct {
	table *aztables.Client
}

// NewTableHabits creates a TableHabits from the given connection string.
func NewTableHabits(connStr, table string) (*TableHabits, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableHabits{table: svc.NewClient(table)}, nil
}

// EnsureTable creates the table unless it already exists.
func (t *TableHabits) EnsureTable(ctx context.Context) error {
	_, err := t.table.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return err
		}
	}
	return nil
}

type habitEntity struct {
	aztables.Entity
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Completed   bool   `json:"Completed"`
	CreatedAt   string `json:"CreatedAt"`
}

func (t *TableHabits) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	filter := "PartitionKey eq '" + habitPartition + "'"
	pager := t.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	habits := []domain.Habit{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			h, err := decodeHabitEntity(e)
			if err != nil {
				return nil, err
			}
			habits = append(habits, h)
		}
	}
	sort.SliceStable(habits, func(i, j int) bool { return habits[i].CreatedAt.Before(habits[j].CreatedAt) })
	return habits, nil
}

func decodeHabitEntity(data []byte) (domain.Habit, error) {
	var ent habitEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return domain.Habit{}, err
	}
	created, _ := time.Parse(time.RFC3339Nano, ent.CreatedAt)
	return domain.Habit{
		ID:          ent.RowKey,
		Name:        ent.Name,
		Description: ent.Description,
		Completed:   ent.Completed,
		CreatedAt:   created,
	}, nil
}

func (t *TableHabits) CreateHabit(ctx context.Context, h domain.Habit) error {
	ent := habitEntity{
		Entity:      aztables.Entity{PartitionKey: habitPartition, RowKey: h.ID},
		Name:        h.Name,
		Description: h.Description,
		Completed:   h.Completed,
		CreatedAt:   h.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	data, err := sonic.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = t.table.AddEntity(ctx, data, nil)
	return err
}

// DeleteHabit removes a habit. Missing ids are not an error.
func (t *TableHabits) DeleteHabit(ctx context.Context, id string) error {
	_, err := t.table.DeleteEntity(ctx, habitPartition, id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return err
	}
	return nil
}
