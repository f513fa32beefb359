package api

import "github.com/Unknownuser10132/shiptivitas-2/domain"

const writeBodyMaxSize = 64 * 1024 // 64 KiB

// idempotencyKeyHeader lets clients replay a write without reapplying it.
const idempotencyKeyHeader = "Idempotency-Key"

type clientsResponse struct {
	Clients []domain.Client `json:"clients"`
}

type createClientRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// updateClientRequest carries the requested placement. Absent fields mean
// "leave unchanged"; priority is the desired rank, not a stored value.
type updateClientRequest struct {
	Status   *string `json:"status,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}
