// Package common provides shared test infrastructure.
package common

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultSurrealImage is the SurrealDB image used when EXTRATO_SURREAL_IMAGE is unset.
const DefaultSurrealImage = "surrealdb/surrealdb:v3.0.0"

var (
	surrealOnce      sync.Once
	surrealContainer *SurrealDBContainer
	surrealError     error
)

// SurrealDBContainer wraps a testcontainers SurrealDB instance.
type SurrealDBContainer struct {
	container testcontainers.Container
	host      string
	port      string
}

// SkipWithoutContainers skips the test when container tests are disabled
// (EXTRATO_SKIP_CONTAINERS set) or -short is given.
func SkipWithoutContainers(t *testing.T) {
	t.Helper()
	if os.Getenv("EXTRATO_SKIP_CONTAINERS") != "" {
		t.Skip("EXTRATO_SKIP_CONTAINERS set")
	}
	if testing.Short() {
		t.Skip("container test skipped in -short mode")
	}
}

// StartSurrealDB starts a shared SurrealDB container for the test run.
// Only one container is created per process.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	t.Helper()
	SkipWithoutContainers(t)

	surrealOnce.Do(func() {
		ctx := context.Background()

		image := os.Getenv("EXTRATO_SURREAL_IMAGE")
		if image == "" {
			image = DefaultSurrealImage
		}

		req := testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--user", "root", "--pass", "root"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("8000/tcp"),
				wait.ForLog("Started web server"),
			).WithDeadline(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			surrealError = fmt.Errorf("start SurrealDB container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			surrealError = fmt.Errorf("get SurrealDB host: %w", err)
			return
		}

		mappedPort, err := container.MappedPort(ctx, "8000/tcp")
		if err != nil {
			container.Terminate(ctx)
			surrealError = fmt.Errorf("get SurrealDB port: %w", err)
			return
		}

		surrealContainer = &SurrealDBContainer{
			container: container,
			host:      host,
			port:      mappedPort.Port(),
		}
	})

	if surrealError != nil {
		t.Fatalf("SurrealDB container failed: %v", surrealError)
	}

	return surrealContainer
}

// Address returns the WebSocket RPC address for SurrealDB.
func (c *SurrealDBContainer) Address() string {
	return fmt.Sprintf("ws://%s:%s/rpc", c.host, c.port)
}

// Cleanup terminates the container.
func (c *SurrealDBContainer) Cleanup() {
	if c != nil && c.container != nil {
		c.container.Terminate(context.Background())
	}
}

// CleanupSurrealDB terminates the shared container, if one was started.
// Call from TestMain.
func CleanupSurrealDB() {
	surrealContainer.Cleanup()
}

// UniqueDatabase derives a per-test database name. SurrealDB rejects "/"
// in database names, which subtests produce.
func UniqueDatabase(t *testing.T, prefix string) string {
	sanitized := strings.NewReplacer("/", "_", " ", "_", "-", "_").Replace(t.Name())
	return fmt.Sprintf("%s_%s_%d", prefix, sanitized, time.Now().UnixNano()%100000)
}
