package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmcts/vh-user-api-duplicate/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample user API configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/userapi/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  userapi init

  # Initialize with custom path
  userapi init --config /etc/userapi/config.yaml

  # Force overwrite existing config
  userapi init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Fill in the directory and auth sections (base URL, domain, client credentials)")
	fmt.Println("  2. Start the server with: userapi start")
	fmt.Printf("  3. Or specify custom config: userapi start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Println("    export USERAPI_API_JWT_SECRET=$(openssl rand -hex 32)")

	return nil
}
