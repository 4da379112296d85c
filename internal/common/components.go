package common

const (
	ComponentSyncEngine  = "sync-engine"
	ComponentWorker      = "contract-worker"
	ComponentEventStore  = "event-store"
	ComponentAbiRegistry = "abi-registry"
	ComponentDecoder     = "decoder"
	ComponentRealtime    = "realtime"
	ComponentDeployments = "deployments"
	ComponentQuery       = "query"
	ComponentAPI         = "api"
	ComponentRPC         = "rpc-client"
)

var AllComponents = map[string]struct{}{
	ComponentSyncEngine:  {},
	ComponentWorker:      {},
	ComponentEventStore:  {},
	ComponentAbiRegistry: {},
	ComponentDecoder:     {},
	ComponentRealtime:    {},
	ComponentDeployments: {},
	ComponentQuery:       {},
	ComponentAPI:         {},
	ComponentRPC:         {},
}
