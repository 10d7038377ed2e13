package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
)

var ErrBoardNotFound = errors.New("board not found")

type BoardRepository interface {
	Save(ctx context.Context, id string, board *entity.Board) error
	GetByID(ctx context.Context, id string) (*entity.Board, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbBoard struct {
	client *redis.Client
}

func NewBoardRepository(client *redis.Client) BoardRepository {
	return &dbBoard{
		client: client,
	}
}

func boardKey(id string) string {
	return "board:" + id
}

func (that *dbBoard) Save(ctx context.Context, id string, board *entity.Board) error {
	boardJSON, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("could not marshal board: %w", err)
	}

	if err = that.client.Set(ctx, boardKey(id), boardJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set board: %w", err)
	}

	return nil
}

func (that *dbBoard) GetByID(ctx context.Context, id string) (*entity.Board, error) {
	response, err := that.client.Get(ctx, boardKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBoardNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get board by id: %w", err)
	}

	board := entity.NewBoard()
	if err = json.Unmarshal(response, board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	return board, nil
}

func (that *dbBoard) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, boardKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete board by id: %w", err)
	}

	if deleted == 0 {
		return ErrBoardNotFound
	}

	return nil
}
