// Package rpc is the wire contract between the client and the hosted
// backend: the Records gRPC service, its messages and a JSON codec.
//
// Messages are plain Go structs encoded as JSON, so no generated stubs
// are needed. Callers must select the codec with
// grpc.CallContentSubtype(CodecName); RecordsClient does so for every call.
package rpc

import (
	"encoding/json"
	"time"
)

// Record is one stored entity as seen by the backend. Data is the domain
// document; the backend stores it verbatim.
type Record struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Data      json.RawMessage `json:"data"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type ListRequest struct {
	EntityType string `json:"entity_type"`
}

type ListResponse struct {
	Records []Record `json:"records"`
}

type GetRequest struct {
	EntityType string `json:"entity_type"`
	ID         string `json:"id"`
}

type GetResponse struct {
	Record Record `json:"record"`
}

// UpsertRequest writes Record under its client-chosen id.
type UpsertRequest struct {
	EntityType string `json:"entity_type"`
	Record     Record `json:"record"`
}

type UpsertResponse struct {
	Record Record `json:"record"`
}

type DeleteRequest struct {
	EntityType string `json:"entity_type"`
	ID         string `json:"id"`
}

// DeleteResponse reports whether a row existed. Deleting an absent id is
// not an error.
type DeleteResponse struct {
	Existed bool `json:"existed"`
}
