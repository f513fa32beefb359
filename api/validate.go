package api

import (
	"errors"
	"strconv"

	"github.com/Unknownuser10132/shiptivitas-2/domain"
)

// Raw request validation happens here, before the board service is invoked.
// The service and the reconciler below it are entitled to assume ids parse,
// priorities are positive and statuses are members of the lane set.

var (
	errInvalidID       = errors.New("invalid id provided, id must be a positive integer")
	errInvalidPriority = errors.New("invalid priority provided, priority must be a positive integer")
	errInvalidStatus   = errors.New("invalid status provided, status must be one of: backlog, in-progress, complete")
)

func parseClientID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errInvalidID
	}
	return id, nil
}

func parseStatus(raw *string) (*domain.Status, error) {
	if raw == nil {
		return nil, nil
	}
	s := domain.Status(*raw)
	if !s.Valid() {
		return nil, errInvalidStatus
	}
	return &s, nil
}

func validatePriority(p *int) error {
	if p != nil && *p < 1 {
		return errInvalidPriority
	}
	return nil
}
