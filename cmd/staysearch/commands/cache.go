package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/staysearch/pkg/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the page cache",
}

var cachePathCmd = &cobra.Command{
	Use:   "path [key]",
	Short: "Print the cache directory, or the file a key is stored in",
	Example: `  staysearch cache path
  staysearch cache path 2024-07-01_2024-10-01_USD_Tulum,Mexico_`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCachePath,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePathCmd)
}

func runCachePath(cmd *cobra.Command, args []string) error {
	if backend := viper.GetString("cache.backend"); backend != "" && backend != "disk" {
		return fmt.Errorf("cache path is only meaningful for the disk backend (configured: %s)", backend)
	}

	dir, err := cacheDir()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), dir)
		return err
	}

	disk, err := cache.NewDisk(dir)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), disk.Path(strings.TrimSpace(args[0])))
	return err
}
