package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/canopy-network/mnvalidator/controller"
	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
	"github.com/cenkalti/backoff/v4"
)

// maxRetryTime bounds how long a request retries while the node is unreachable
const maxRetryTime = 5 * time.Second

type Client struct {
	rpcURL string
	client http.Client
}

func NewClient(rpcURL string) *Client {
	return &Client{rpcURL: rpcURL, client: http.Client{}}
}

func (c *Client) Version() (version *string, err lib.ErrorI) {
	version = new(string)
	err = c.get(VersionRouteName, version)
	return
}

func (c *Client) Height() (p *uint64, err lib.ErrorI) {
	h := new(heightResult)
	if err = c.post(HeightRouteName, nil, h); err != nil {
		return
	}
	return &h.Height, nil
}

func (c *Client) Phase() (p *fsm.PhaseInfo, err lib.ErrorI) {
	p = new(fsm.PhaseInfo)
	err = c.post(PhaseRouteName, nil, p)
	return
}

func (c *Client) Candidates() (p []fsm.Candidacy, err lib.ErrorI) {
	err = c.post(CandidatesRouteName, nil, &p)
	return
}

func (c *Client) Votes() (p []fsm.VoteRecord, err lib.ErrorI) {
	err = c.post(VotesRouteName, nil, &p)
	return
}

func (c *Client) Validators() (p []string, err lib.ErrorI) {
	err = c.post(ValidatorsRouteName, nil, &p)
	return
}

func (c *Client) BlockByHeight(height uint64) (p *BlockResult, err lib.ErrorI) {
	p = new(BlockResult)
	err = c.heightRequest(BlockByHeightRouteName, height, p)
	return
}

func (c *Client) Pending() (p []string, err lib.ErrorI) {
	err = c.post(PendingRouteName, nil, &p)
	return
}

func (c *Client) State() (p *fsm.ExportedState, err lib.ErrorI) {
	p = new(fsm.ExportedState)
	err = c.post(StateRouteName, nil, p)
	return
}

func (c *Client) Transaction(tx *fsm.Transaction) (txID *string, err lib.ErrorI) {
	bz, err := tx.Bytes()
	if err != nil {
		return nil, err
	}
	return c.txRequest(TxRouteName, bz)
}

func (c *Client) Generate(count int, validatorPublicKey, password string) (hashes []string, err lib.ErrorI) {
	pub, err := lib.StringToBytes(validatorPublicKey)
	if err != nil {
		return nil, err
	}
	bz, err := lib.MarshalJSON(generateRequest{Count: count, ValidatorPublicKey: pub, passwordRequest: passwordRequest{password}})
	if err != nil {
		return
	}
	err = c.post(GenerateRouteName, bz, &hashes)
	return
}

func (c *Client) RegisterValidator(alias, password string) (txID *string, err lib.ErrorI) {
	bz, err := lib.MarshalJSON(registerRequest{Alias: alias, passwordRequest: passwordRequest{password}})
	if err != nil {
		return
	}
	return c.txRequest(RegisterRouteName, bz)
}

func (c *Client) VoteValidators(votes []fsm.VoteEntry, password string) (txID *string, err lib.ErrorI) {
	bz, err := lib.MarshalJSON(voteRequest{Votes: votes, passwordRequest: passwordRequest{password}})
	if err != nil {
		return
	}
	return c.txRequest(VoteRouteName, bz)
}

func (c *Client) Disconnect() (p *DisconnectResult, err lib.ErrorI) {
	p = new(DisconnectResult)
	err = c.post(DisconnectRouteName, nil, p)
	return
}

func (c *Client) Keystore() (p *crypto.Keystore, err lib.ErrorI) {
	p = new(crypto.Keystore)
	err = c.get(KeystoreRouteName, p)
	return
}

func (c *Client) KeystoreNewKey(password string) (publicKey *string, err lib.ErrorI) {
	return c.keystoreRequest(KeystoreNewKeyRouteName, keystoreRequest{passwordRequest: passwordRequest{password}})
}

func (c *Client) KeystoreImportRaw(privateKey, password string) (publicKey *string, err lib.ErrorI) {
	pk, err := lib.StringToBytes(privateKey)
	if err != nil {
		return nil, err
	}
	return c.keystoreRequest(KeystoreImportRawRouteName, keystoreRequest{PrivateKey: pk, passwordRequest: passwordRequest{password}})
}

func (c *Client) KeystoreDelete(publicKey string) (deleted *string, err lib.ErrorI) {
	pub, err := lib.StringToBytes(publicKey)
	if err != nil {
		return nil, err
	}
	return c.keystoreRequest(KeystoreDeleteRouteName, keystoreRequest{PublicKey: pub})
}

func (c *Client) Masternodes() (p []controller.Masternode, err lib.ErrorI) {
	err = c.get(MasternodesRouteName, &p)
	return
}

func (c *Client) MasternodeAdd(alias, publicKey string, operating bool) (p []controller.Masternode, err lib.ErrorI) {
	pub, err := lib.StringToBytes(publicKey)
	if err != nil {
		return nil, err
	}
	return c.masternodeRequest(MasternodeAddRouteName, masternodeRequest{Alias: alias, PublicKey: pub, Operating: operating})
}

func (c *Client) MasternodeOperating(alias string, operating bool) (p []controller.Masternode, err lib.ErrorI) {
	return c.masternodeRequest(MasternodeOperatingRouteName, masternodeRequest{Alias: alias, Operating: operating})
}

func (c *Client) MasternodeRemove(alias string) (p []controller.Masternode, err lib.ErrorI) {
	return c.masternodeRequest(MasternodeRemoveRouteName, masternodeRequest{Alias: alias})
}

func (c *Client) Config() (p *lib.Config, err lib.ErrorI) {
	p = new(lib.Config)
	err = c.get(ConfigRouteName, p)
	return
}

func (c *Client) ResourceUsage() (p *ResourceUsageResult, err lib.ErrorI) {
	p = new(ResourceUsageResult)
	err = c.get(ResourceUsageRouteName, p)
	return
}

func (c *Client) heightRequest(routeName string, height uint64, ptr any) (err lib.ErrorI) {
	bz, err := lib.MarshalJSON(heightRequest{Height: height})
	if err != nil {
		return
	}
	err = c.post(routeName, bz, ptr)
	return
}

func (c *Client) txRequest(routeName string, json []byte) (txID *string, err lib.ErrorI) {
	result := new(txResult)
	if err = c.post(routeName, json, result); err != nil {
		return
	}
	return &result.TxID, nil
}

func (c *Client) keystoreRequest(routeName string, req keystoreRequest) (p *string, err lib.ErrorI) {
	bz, err := lib.MarshalJSON(req)
	if err != nil {
		return
	}
	p = new(string)
	err = c.post(routeName, bz, p)
	return
}

func (c *Client) masternodeRequest(routeName string, req masternodeRequest) (p []controller.Masternode, err lib.ErrorI) {
	bz, err := lib.MarshalJSON(req)
	if err != nil {
		return
	}
	err = c.post(routeName, bz, &p)
	return
}

func (c *Client) url(routeName string) string {
	return c.rpcURL + routePaths[routeName].Path
}

// post sends a request body, retrying with exponential backoff while the node can't be reached
// A response from the node is never retried
func (c *Client) post(routeName string, json []byte, ptr any) lib.ErrorI {
	var resp *http.Response
	if err := c.retry(func() (err error) {
		resp, err = c.client.Post(c.url(routeName), ApplicationJSON, bytes.NewBuffer(json))
		return
	}); err != nil {
		return lib.ErrPostRequest(err)
	}
	return c.unmarshal(resp, ptr)
}

func (c *Client) get(routeName string, ptr any) lib.ErrorI {
	var resp *http.Response
	if err := c.retry(func() (err error) {
		resp, err = c.client.Get(c.url(routeName))
		return
	}); err != nil {
		return lib.ErrGetRequest(err)
	}
	return c.unmarshal(resp, ptr)
}

func (c *Client) retry(operation backoff.Operation) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxRetryTime
	return backoff.Retry(operation, policy)
}

// unmarshal decodes a response, turning rejections back into the typed error the node returned
func (c *Client) unmarshal(resp *http.Response, ptr any) lib.ErrorI {
	defer func() { _ = resp.Body.Close() }()
	bz, err := io.ReadAll(resp.Body)
	if err != nil {
		return lib.ErrReadBody(err)
	}
	if resp.StatusCode != http.StatusOK {
		e := new(errorResult)
		if json.Unmarshal(bz, e) != nil || e.EModule == "" {
			return lib.ErrHttpStatus(resp.Status, resp.StatusCode, bz)
		}
		return e.toError()
	}
	return lib.UnmarshalJSON(bz, ptr)
}
