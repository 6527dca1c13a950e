package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/canopy-network/mnvalidator/cmd/rpc"
	"github.com/canopy-network/mnvalidator/controller"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rootCmd = &cobra.Command{
	Use:   "mnvalidator",
	Short: "the masternode validator lifecycle node",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config = InitializeDataDirectory(DataDir, lib.NewDefaultLogger())
		l = lib.NewLogger(lib.LoggerConfig{Level: config.GetLogLevel()}, config.DataDirPath)
		client = rpc.NewClient(config.RPCUrl)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(rpc.SoftwareVersion)
	},
}

var (
	client, config, l = &rpc.Client{}, lib.Config{}, lib.LoggerI(nil)
	DataDir, pwd      = "", ""
)

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.PersistentFlags().StringVar(&DataDir, "data-dir", lib.DefaultDataDirPath(), "custom data directory location")
	rootCmd.PersistentFlags().StringVar(&pwd, "password", "", "keystore password, prompted for when empty")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start the masternode validator node",
	Run: func(cmd *cobra.Command, args []string) {
		Start()
	},
}

// Start() is the entrypoint of the application
func Start() {
	// initialize the metrics server
	metrics := lib.NewMetricsServer(config.MetricsConfig, l)
	// create a new database object from the config
	db, err := store.New(config.StoreConfig, l)
	if err != nil {
		l.Fatal(err.Error())
	}
	// load the identity oracle
	masternodes, err := controller.NewMasternodeListFromFile(config.DataDirPath)
	if err != nil {
		l.Fatal(err.Error())
	}
	l.Infof("Loaded %d masternodes", len(masternodes.List()))
	// create a new instance of the application
	app, err := controller.New(config, db, masternodes, metrics, l)
	if err != nil {
		l.Fatal(err.Error())
	}
	// initialize the rpc server
	rpcServer := rpc.NewServer(app, config, l)
	// cancelled when a kill signal is received
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGABRT)
	defer stop()
	metrics.Start()
	// run the application and the rpc server until either fails or the node is killed
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		app.Start(ctx)
		return nil
	})
	group.Go(func() error { return rpcServer.Start(ctx) })
	if e := group.Wait(); e != nil {
		l.Error(e.Error())
	}
	l.Info("Exit command received")
	// gracefully stop the app
	app.Stop()
	// gracefully stop the metrics server
	metrics.Stop()
}

// InitializeDataDirectory() populates the data directory with configuration files if missing and loads the config
func InitializeDataDirectory(dataDirPath string, log lib.LoggerI) (c lib.Config) {
	// make the data dir if missing
	if err := os.MkdirAll(dataDirPath, os.ModePerm); err != nil {
		log.Fatal(err.Error())
	}
	// make the config.json file if missing
	configFilePath := filepath.Join(dataDirPath, lib.ConfigFilePath)
	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		log.Infof("Creating %s file", lib.ConfigFilePath)
		defaults := lib.DefaultConfig()
		defaults.DataDirPath = dataDirPath
		if err = defaults.WriteToFile(configFilePath); err != nil {
			log.Fatal(err.Error())
		}
	}
	// make the masternode list file if missing
	if _, err := os.Stat(filepath.Join(dataDirPath, controller.MasternodeListName)); errors.Is(err, os.ErrNotExist) {
		log.Infof("Creating %s file", controller.MasternodeListName)
		empty, _ := controller.NewMasternodeList()
		if e := empty.SaveToFile(dataDirPath); e != nil {
			log.Fatal(e.Error())
		}
	}
	c, err := lib.NewConfigFromFile(configFilePath)
	if err != nil {
		log.Fatal(err.Error())
	}
	c.DataDirPath = dataDirPath
	// apply the environment overrides
	if err = c.ApplyEnv(dataDirPath); err != nil {
		log.Fatal(err.Error())
	}
	if e := c.Validate(); e != nil {
		log.Fatal(e.Error())
	}
	return
}

// getPassword() returns the password flag or prompts for it
func getPassword() string {
	if pwd == "" {
		fmt.Println("Enter password:")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			l.Fatal(err.Error())
		}
		if len(password) == 0 {
			fmt.Println("Password cannot be empty")
			return getPassword()
		}
		return string(password)
	}
	return pwd
}

func writeToConsole(a any, err lib.ErrorI) {
	if err != nil {
		l.Fatal(err.Error())
	}
	switch v := a.(type) {
	case *uint64:
		p := message.NewPrinter(language.English)
		if _, e := p.Printf("%d\n", *v); e != nil {
			l.Fatal(e.Error())
		}
	case *string:
		fmt.Println(*v)
	default:
		s, e := lib.MarshalJSONIndentString(a)
		if e != nil {
			l.Fatal(e.Error())
		}
		fmt.Println(s)
	}
}
