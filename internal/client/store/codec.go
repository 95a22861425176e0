package store

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/rpc"
)

func encodeData[T any](data T) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", models.ErrValidation, err)
	}
	return b, nil
}

func decodeData[T any](raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: decode: %v", models.ErrValidation, err)
	}
	return v, nil
}

func fromStored[T any](row models.StoredRecord) (models.Record[T], error) {
	data, err := decodeData[T](row.Data)
	if err != nil {
		return models.Record[T]{}, fmt.Errorf("record %s/%s: %w", row.EntityType, row.ID, err)
	}
	return models.Record[T]{
		ID:         row.ID,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		SyncStatus: row.SyncStatus,
		Data:       data,
	}, nil
}

func toWire[T any](rec models.Record[T]) (rpc.Record, error) {
	body, err := encodeData(rec.Data)
	if err != nil {
		return rpc.Record{}, err
	}
	return rpc.Record{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
		Data:      body,
	}, nil
}

// fromWire marks the record synced: the remote copy is by definition
// acknowledged.
func fromWire[T any](w rpc.Record) (models.Record[T], error) {
	data, err := decodeData[T](w.Data)
	if err != nil {
		return models.Record[T]{}, err
	}
	return models.Record[T]{
		ID:         w.ID,
		CreatedAt:  w.CreatedAt.UTC(),
		UpdatedAt:  w.UpdatedAt.UTC(),
		SyncStatus: models.SyncStatusSynced,
		Data:       data,
	}, nil
}
