package rpc

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/canopy-network/mnvalidator/controller"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
	"github.com/julienschmidt/httprouter"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Generate produces blocks from the mempool, optionally signed by a keystore validator key
func (s *Server) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := &generateRequest{Count: 1}
	if ok := unmarshal(w, r, req); !ok {
		return
	}
	if req.Count <= 0 {
		writeErr(w, lib.ErrInvalidArgument())
		return
	}
	var validatorKey crypto.PrivateKeyI
	if len(req.ValidatorPublicKey) != 0 {
		keystore, ok := s.newKeystore(w)
		if !ok {
			return
		}
		kg, err := keystore.GetKeyGroup(req.ValidatorPublicKey, req.Password)
		if err != nil {
			writeErr(w, controller.ErrNoMasternodeKey(err))
			return
		}
		validatorKey = kg.PrivateKey
	}
	hashes, err := s.controller.Generate(req.Count, validatorKey)
	if err != nil {
		writeErr(w, err)
		return
	}
	write(w, hashes, http.StatusOK)
}

// RegisterValidator registers the masternode configured under an alias as a validator candidate
func (s *Server) RegisterValidator(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(registerRequest)
	s.walletHandler(w, r, req, &req.passwordRequest, func(wallet controller.Wallet) (string, lib.ErrorI) {
		return s.controller.RegisterValidator(wallet, req.Alias)
	})
}

// VoteValidators casts yes/no votes on candidates with the wallet's masternode key
func (s *Server) VoteValidators(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(voteRequest)
	s.walletHandler(w, r, req, &req.passwordRequest, func(wallet controller.Wallet) (string, lib.ErrorI) {
		return s.controller.VoteValidators(wallet, req.Votes)
	})
}

// Disconnect removes the tip block, demoting its facts back to pending
func (s *Server) Disconnect(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	discarded, err := s.controller.DisconnectTip()
	if err != nil {
		writeErr(w, err)
		return
	}
	write(w, DisconnectResult{Height: s.controller.Height(), Discarded: discarded}, http.StatusOK)
}

// Keystore responds with the local keystore
func (s *Server) Keystore(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.keystoreMux.Lock()
	defer s.keystoreMux.Unlock()
	keystore, ok := s.newKeystore(w)
	if !ok {
		return
	}
	write(w, keystore, http.StatusOK)
}

// KeystoreNewKey adds a freshly generated masternode key to the keystore
func (s *Server) KeystoreNewKey(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.keystoreHandler(w, r, func(k *crypto.Keystore, ptr *keystoreRequest) (any, error) {
		pk, err := crypto.NewSECP256K1PrivateKey()
		if err != nil {
			return nil, err
		}
		publicKey, err := k.ImportRaw(pk.Bytes(), ptr.Password)
		if err != nil {
			return nil, err
		}
		// Update the keystore on disk and return the new public key
		return publicKey, k.SaveToFile(s.config.DataDirPath)
	})
}

// KeystoreImportRaw adds a raw private key to the keystore
func (s *Server) KeystoreImportRaw(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.keystoreHandler(w, r, func(k *crypto.Keystore, ptr *keystoreRequest) (any, error) {
		publicKey, err := k.ImportRaw(ptr.PrivateKey, ptr.Password)
		if err != nil {
			return nil, err
		}
		return publicKey, k.SaveToFile(s.config.DataDirPath)
	})
}

// KeystoreDelete removes a key from the keystore
func (s *Server) KeystoreDelete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.keystoreHandler(w, r, func(k *crypto.Keystore, ptr *keystoreRequest) (any, error) {
		k.DeleteKey(ptr.PublicKey)
		return ptr.PublicKey, k.SaveToFile(s.config.DataDirPath)
	})
}

// Masternodes responds with the masternode list
func (s *Server) Masternodes(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.controller.Masternodes.List(), http.StatusOK)
}

// MasternodeAdd adds an entry to the masternode list
func (s *Server) MasternodeAdd(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.masternodeHandler(w, r, func(l *controller.MasternodeList, ptr *masternodeRequest) lib.ErrorI {
		return l.Add(ptr.Alias, ptr.PublicKey, ptr.Operating)
	})
}

// MasternodeOperating marks a listed masternode as running or stopped
func (s *Server) MasternodeOperating(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.masternodeHandler(w, r, func(l *controller.MasternodeList, ptr *masternodeRequest) lib.ErrorI {
		return l.SetOperating(ptr.Alias, ptr.Operating)
	})
}

// MasternodeRemove deletes an entry from the masternode list
func (s *Server) MasternodeRemove(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.masternodeHandler(w, r, func(l *controller.MasternodeList, ptr *masternodeRequest) lib.ErrorI {
		if _, found := l.ResolveAlias(ptr.Alias); !found {
			return controller.ErrAliasNotFound(ptr.Alias)
		}
		l.Remove(ptr.Alias)
		return nil
	})
}

// Config responds with the node configuration
func (s *Server) Config(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.config, http.StatusOK)
}

// ResourceUsage responds with the host and node process resource usage
func (s *Server) ResourceUsage(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	vm, err := mem.VirtualMemory() // os memory
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	cp, err := cpu.Percent(0, false) // os cpu percent
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	d, err := disk.Usage(s.config.DataDirPath) // the disk holding the ledgers
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	name, err := p.Name()
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	status, err := p.Status()
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	numThreads, err := p.NumThreads()
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	memPercent, err := p.MemoryPercent()
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	createdMs, err := p.CreateTime()
	if err != nil {
		writeErr(w, ErrResourceUsage(err))
		return
	}
	result := ResourceUsageResult{
		Process: ProcessResourceUsage{
			Name:          name,
			Status:        strings.Join(status, ","),
			CreateTime:    time.UnixMilli(createdMs).Format(time.RFC822),
			ThreadCount:   uint64(numThreads),
			MemoryPercent: float64(memPercent),
			CPUPercent:    cpuPercent,
		},
		System: SystemResourceUsage{
			TotalRAM:        vm.Total,
			AvailableRAM:    vm.Available,
			UsedRAM:         vm.Used,
			UsedRAMPercent:  vm.UsedPercent,
			TotalDisk:       d.Total,
			UsedDisk:        d.Used,
			UsedDiskPercent: d.UsedPercent,
			FreeDisk:        d.Free,
		},
	}
	if len(cp) != 0 {
		result.System.UsedCPUPercent = cp[0]
	}
	write(w, result, http.StatusOK)
}

// newKeystore loads the local keystore file
func (s *Server) newKeystore(w http.ResponseWriter) (k *crypto.Keystore, ok bool) {
	k, err := crypto.NewKeystoreFromFile(s.config.DataDirPath)
	if err != nil {
		writeErr(w, err)
		return
	}
	return k, true
}

// keystoreHandler is a helper function that abstracts common workflows of keystore operations
func (s *Server) keystoreHandler(w http.ResponseWriter, r *http.Request, callback func(keystore *crypto.Keystore, ptr *keystoreRequest) (any, error)) {
	s.keystoreMux.Lock()
	defer s.keystoreMux.Unlock()
	keystore, ok := s.newKeystore(w)
	if !ok {
		return
	}
	ptr := new(keystoreRequest)
	if ok = unmarshal(w, r, ptr); !ok {
		return
	}
	p, err := callback(keystore, ptr)
	if err != nil {
		writeErr(w, err)
		return
	}
	write(w, p, http.StatusOK)
}

// walletHandler unlocks the keystore with the request password and submits the transaction the callback builds
func (s *Server) walletHandler(w http.ResponseWriter, r *http.Request, ptr any, pw *passwordRequest, callback func(wallet controller.Wallet) (string, lib.ErrorI)) {
	if ok := unmarshal(w, r, ptr); !ok {
		return
	}
	keystore, ok := s.newKeystore(w)
	if !ok {
		return
	}
	txID, err := callback(controller.NewKeystoreWallet(keystore, pw.Password))
	if err != nil {
		writeErr(w, err)
		return
	}
	write(w, txResult{TxID: txID}, http.StatusOK)
}

// masternodeHandler applies a change to the masternode list and persists it
func (s *Server) masternodeHandler(w http.ResponseWriter, r *http.Request, callback func(l *controller.MasternodeList, ptr *masternodeRequest) lib.ErrorI) {
	ptr := new(masternodeRequest)
	if ok := unmarshal(w, r, ptr); !ok {
		return
	}
	list := s.controller.Masternodes
	if err := callback(list, ptr); err != nil {
		writeErr(w, err)
		return
	}
	if err := list.SaveToFile(s.config.DataDirPath); err != nil {
		writeErr(w, err)
		return
	}
	write(w, list.List(), http.StatusOK)
}
