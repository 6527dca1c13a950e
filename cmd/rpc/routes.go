package rpc

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Masternode Validator RPC Paths
const (
	VersionRoutePath       = "/v1/"
	TxRoutePath            = "/v1/tx"
	HeightRoutePath        = "/v1/query/height"
	PhaseRoutePath         = "/v1/query/phase"
	CandidatesRoutePath    = "/v1/query/mnregvalidatorlist"
	VotesRoutePath         = "/v1/query/mnvotevalidatorlist"
	ValidatorsRoutePath    = "/v1/query/mnvalidatorlist"
	BlockByHeightRoutePath = "/v1/query/block-by-height"
	PendingRoutePath       = "/v1/query/pending"
	StateRoutePath         = "/v1/query/state"
	// admin
	GenerateRoutePath          = "/v1/admin/generate"
	RegisterRoutePath          = "/v1/admin/mnregvalidator"
	VoteRoutePath              = "/v1/admin/mnvotevalidator"
	DisconnectRoutePath        = "/v1/admin/disconnect"
	KeystoreRoutePath          = "/v1/admin/keystore"
	KeystoreNewKeyRoutePath    = "/v1/admin/keystore-new-key"
	KeystoreImportRawRoutePath = "/v1/admin/keystore-import-raw"
	KeystoreDeleteRoutePath    = "/v1/admin/keystore-delete"
	MasternodesRoutePath       = "/v1/admin/masternode"
	MasternodeAddRoutePath     = "/v1/admin/masternode-add"
	MasternodeOperatingPath    = "/v1/admin/masternode-operating"
	MasternodeRemoveRoutePath  = "/v1/admin/masternode-remove"
	ConfigRoutePath            = "/v1/admin/config"
	ResourceUsageRoutePath     = "/v1/admin/resource-usage"
)

const (
	VersionRouteName             = "version"
	TxRouteName                  = "tx"
	HeightRouteName              = "height"
	PhaseRouteName               = "phase"
	CandidatesRouteName          = "mnregvalidatorlist"
	VotesRouteName               = "mnvotevalidatorlist"
	ValidatorsRouteName          = "mnvalidatorlist"
	BlockByHeightRouteName       = "block-by-height"
	PendingRouteName             = "pending"
	StateRouteName               = "state"
	GenerateRouteName            = "generate"
	RegisterRouteName            = "mnregvalidator"
	VoteRouteName                = "mnvotevalidator"
	DisconnectRouteName          = "disconnect"
	KeystoreRouteName            = "keystore"
	KeystoreNewKeyRouteName      = "keystore-new-key"
	KeystoreImportRawRouteName   = "keystore-import-raw"
	KeystoreDeleteRouteName      = "keystore-delete"
	MasternodesRouteName         = "masternode"
	MasternodeAddRouteName       = "masternode-add"
	MasternodeOperatingRouteName = "masternode-operating"
	MasternodeRemoveRouteName    = "masternode-remove"
	ConfigRouteName              = "config"
	ResourceUsageRouteName       = "resource-usage"
)

// routes contains the method and path for an rpc command
type routes map[string]struct {
	Method string
	Path   string
}

// routePaths is a mapping from route names to their corresponding HTTP methods and paths
var routePaths = routes{
	VersionRouteName:             {Method: http.MethodGet, Path: VersionRoutePath},
	TxRouteName:                  {Method: http.MethodPost, Path: TxRoutePath},
	HeightRouteName:              {Method: http.MethodPost, Path: HeightRoutePath},
	PhaseRouteName:               {Method: http.MethodPost, Path: PhaseRoutePath},
	CandidatesRouteName:          {Method: http.MethodPost, Path: CandidatesRoutePath},
	VotesRouteName:               {Method: http.MethodPost, Path: VotesRoutePath},
	ValidatorsRouteName:          {Method: http.MethodPost, Path: ValidatorsRoutePath},
	BlockByHeightRouteName:       {Method: http.MethodPost, Path: BlockByHeightRoutePath},
	PendingRouteName:             {Method: http.MethodPost, Path: PendingRoutePath},
	StateRouteName:               {Method: http.MethodPost, Path: StateRoutePath},
	GenerateRouteName:            {Method: http.MethodPost, Path: GenerateRoutePath},
	RegisterRouteName:            {Method: http.MethodPost, Path: RegisterRoutePath},
	VoteRouteName:                {Method: http.MethodPost, Path: VoteRoutePath},
	DisconnectRouteName:          {Method: http.MethodPost, Path: DisconnectRoutePath},
	KeystoreRouteName:            {Method: http.MethodGet, Path: KeystoreRoutePath},
	KeystoreNewKeyRouteName:      {Method: http.MethodPost, Path: KeystoreNewKeyRoutePath},
	KeystoreImportRawRouteName:   {Method: http.MethodPost, Path: KeystoreImportRawRoutePath},
	KeystoreDeleteRouteName:      {Method: http.MethodPost, Path: KeystoreDeleteRoutePath},
	MasternodesRouteName:         {Method: http.MethodGet, Path: MasternodesRoutePath},
	MasternodeAddRouteName:       {Method: http.MethodPost, Path: MasternodeAddRoutePath},
	MasternodeOperatingRouteName: {Method: http.MethodPost, Path: MasternodeOperatingPath},
	MasternodeRemoveRouteName:    {Method: http.MethodPost, Path: MasternodeRemoveRoutePath},
	ConfigRouteName:              {Method: http.MethodGet, Path: ConfigRoutePath},
	ResourceUsageRouteName:       {Method: http.MethodGet, Path: ResourceUsageRoutePath},
}

// httpRouteHandlers is a custom type that maps strings to httprouter handle functions
type httpRouteHandlers map[string]httprouter.Handle

// createRouter initializes and returns a new HTTP router with predefined route handlers.
func createRouter(s *Server) *httprouter.Router {
	var r = httpRouteHandlers{
		VersionRouteName:             s.Version,
		TxRouteName:                  s.Transaction,
		HeightRouteName:              s.Height,
		PhaseRouteName:               s.Phase,
		CandidatesRouteName:          s.Candidates,
		VotesRouteName:               s.Votes,
		ValidatorsRouteName:          s.Validators,
		BlockByHeightRouteName:       s.BlockByHeight,
		PendingRouteName:             s.Pending,
		StateRouteName:               s.State,
		GenerateRouteName:            s.Generate,
		RegisterRouteName:            s.RegisterValidator,
		VoteRouteName:                s.VoteValidators,
		DisconnectRouteName:          s.Disconnect,
		KeystoreRouteName:            s.Keystore,
		KeystoreNewKeyRouteName:      s.KeystoreNewKey,
		KeystoreImportRawRouteName:   s.KeystoreImportRaw,
		KeystoreDeleteRouteName:      s.KeystoreDelete,
		MasternodesRouteName:         s.Masternodes,
		MasternodeAddRouteName:       s.MasternodeAdd,
		MasternodeOperatingRouteName: s.MasternodeOperating,
		MasternodeRemoveRouteName:    s.MasternodeRemove,
		ConfigRouteName:              s.Config,
		ResourceUsageRouteName:       s.ResourceUsage,
	}

	// Initialize a new router using the httprouter package.
	router := httprouter.New()

	for name, handler := range r {
		// Retrieve the path configuration for the current route name.
		path := routePaths[name]

		// Add the handler for the specific path and HTTP method to the router.
		router.Handle(path.Method, path.Path, logHandler{s.logger, path.Path, handler}.Handle)
	}
	return router
}
