package main

import (
	"path/filepath"

	"github.com/forgenet/forged/blockchain"
	"github.com/forgenet/forged/chaincfg"
	"github.com/forgenet/forged/config"
	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/delegates"
	"github.com/forgenet/forged/forging"
	"github.com/forgenet/forged/logger"
	"github.com/forgenet/forged/mempool"
	"github.com/forgenet/forged/signal"
	"github.com/forgenet/forged/version"
	"github.com/forgenet/forged/wire"
)

// accountStore adapts the database context to the chain's account
// lookup contract.
type accountStore struct {
	databaseContext *dbaccess.DatabaseContext
}

func (s *accountStore) GetByPublicKey(publicKey string) (*dbaccess.Account, error) {
	return s.databaseContext.FetchAccount(publicKey)
}

// runNode wires the subsystems together and blocks until shutdown.
func runNode(cfg *config.Config) error {
	err := logger.InitLog(
		filepath.Join(cfg.LogDir, config.DefaultLogFilename),
		filepath.Join(cfg.LogDir, config.DefaultErrLogFilename),
	)
	if err != nil {
		return err
	}
	defer logger.Close()
	if err := logger.ParseAndSetLogLevels(cfg.DebugLevel); err != nil {
		return err
	}
	log.Infof("Version %s", version.Version())
	log.Infof("Active network: %s", cfg.ActiveNetParams.Name)

	interrupt := signal.InterruptListener()

	databaseContext, err := dbaccess.New(filepath.Join(cfg.DataDir, "db"))
	if err != nil {
		log.Errorf("Unable to open database: %s", err)
		return err
	}
	defer databaseContext.Close()

	if err := ensureGenesis(databaseContext, cfg.ActiveNetParams); err != nil {
		log.Errorf("Unable to initialize genesis block: %s", err)
		return err
	}

	accounts := &accountStore{databaseContext: databaseContext}
	txPool := mempool.New(&mempool.Config{DatabaseContext: databaseContext})
	delegateManager := delegates.New(&delegates.Config{
		Params:          cfg.ActiveNetParams,
		DatabaseContext: databaseContext,
	})
	applier := blockchain.NewApplier(&blockchain.ApplierConfig{
		DatabaseContext: databaseContext,
		Transactions:    txPool,
	})

	chain, err := blockchain.New(&blockchain.Config{
		Params:       cfg.ActiveNetParams,
		Store:        databaseContext,
		Accounts:     accounts,
		Delegates:    delegateManager,
		Transactions: txPool,
		Applier:      applier,
	})
	if err != nil {
		return err
	}
	applier.Bind(chain)

	tipHeight, err := databaseContext.TipHeight()
	if err != nil {
		return err
	}
	tip, err := databaseContext.FetchBlockByHeight(tipHeight)
	if err != nil {
		return err
	}
	chain.SetLastBlock(tip)
	chain.HandleBlockchainReady()
	chain.SetLoaded(true)
	log.Infof("Chain loaded at height %d, block %s", tip.Height, tip.ID)

	forgingManager := forging.New(&forging.Config{
		Force:    cfg.ForgingForce,
		Secrets:  cfg.ForgingSecrets,
		Password: []byte(cfg.ForgingPassword),
		Accounts: accounts,
	})
	if err := forgingManager.LoadDelegates(); err != nil {
		log.Errorf("Unable to load forging delegates: %s", err)
		return err
	}
	if forgingManager.Count() > 0 {
		log.Infof("Forging with %d delegate keypairs", forgingManager.Count())
	}

	<-interrupt
	chain.BeginCleanup()
	log.Infof("Gracefully shutting down forged...")
	return nil
}

// ensureGenesis materializes the network's genesis block in an empty
// store.
func ensureGenesis(databaseContext *dbaccess.DatabaseContext, params *chaincfg.Params) error {
	tipHeight, err := databaseContext.TipHeight()
	if err != nil {
		return err
	}
	if tipHeight > 0 {
		return nil
	}
	genesis := &wire.Block{
		ID:                 params.GenesisBlock.ID,
		Height:             1,
		PayloadHash:        params.GenesisBlock.PayloadHash,
		GeneratorPublicKey: params.GenesisBlock.GeneratorPublicKey,
		BlockSignature:     params.GenesisBlock.BlockSignature,
	}
	log.Infof("Storing genesis block %s", genesis.ID)
	return databaseContext.StoreBlock(genesis)
}
