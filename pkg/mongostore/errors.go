package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// Server error codes the store reacts to.
const (
	codeNamespaceNotFound     = 26
	codeNamespaceExists       = 48
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
	codeDuplicateKey          = 11000
)

// translate maps driver errors onto the domain taxonomy. The driver error
// stays in the chain so callers can still inspect it.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", domain.ErrUniquenessViolation, err)
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %w", domain.ErrConnectionFailure, err)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case codeNamespaceNotFound:
			return fmt.Errorf("%w: %w", domain.ErrCollectionNotFound, err)
		case codeNamespaceExists:
			return fmt.Errorf("%w: %w", domain.ErrCollectionExists, err)
		case codeIndexOptionsConflict, codeIndexKeySpecsConflict:
			return fmt.Errorf("%w: %w", domain.ErrSchemaConflict, err)
		case codeDuplicateKey:
			return fmt.Errorf("%w: %w", domain.ErrUniquenessViolation, err)
		}
	}
	return err
}

func isConnectionError(err error) bool {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	if errors.Is(err, mongo.ErrClientDisconnected) || errors.Is(err, topology.ErrServerSelectionTimeout) {
		return true
	}
	var selErr topology.ServerSelectionError
	return errors.As(err, &selErr)
}
