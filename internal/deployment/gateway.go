// Package deployment exposes a read-only view over the deployment
// catalog, used to scope queries and subscriptions to a deployment's
// contract set. The catalog rows are maintained externally.
package deployment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/russross/meddler"

	"github.com/goran-ethernal/StarkIndexor/internal/logger"
)

// ErrNotFound is returned when no deployment has the requested id.
var ErrNotFound = errors.New("deployment not found")

// Deployment statuses as the catalog writes them.
const (
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusArchived = "archived"
)

// Deployment is one catalog entry grouping contracts under a name.
type Deployment struct {
	ID                string         `meddler:"id"`
	Name              string         `meddler:"name"`
	Description       string         `meddler:"description"`
	Network           string         `meddler:"network"`
	Status            string         `meddler:"status"`
	ContractAddresses []string       `meddler:"contract_addresses,jsonarray"`
	Metadata          map[string]any `meddler:"metadata,jsonmap"`
	CreatedAt         time.Time      `meddler:"created_at,utctime"`
	UpdatedAt         time.Time      `meddler:"updated_at,utctime"`
}

// Gateway reads the deployments table.
type Gateway struct {
	db  *sql.DB
	log *logger.Logger
}

// NewGateway wraps an open database handle.
func NewGateway(database *sql.DB, log *logger.Logger) *Gateway {
	return &Gateway{db: database, log: log}
}

// List returns deployments ordered by name. A non-empty status narrows
// the result to that status.
func (g *Gateway) List(ctx context.Context, status string) ([]*Deployment, error) {
	var (
		deployments []*Deployment
		err         error
	)

	if status != "" {
		err = meddler.QueryAll(g.db, &deployments,
			`SELECT * FROM deployments WHERE status = ? ORDER BY name ASC`, status)
	} else {
		err = meddler.QueryAll(g.db, &deployments,
			`SELECT * FROM deployments ORDER BY name ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	return deployments, nil
}

// Get returns one deployment by id, or ErrNotFound.
func (g *Gateway) Get(ctx context.Context, id string) (*Deployment, error) {
	var dep Deployment
	err := meddler.QueryRow(g.db, &dep, `SELECT * FROM deployments WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deployment %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment %q: %w", id, err)
	}

	return &dep, nil
}
