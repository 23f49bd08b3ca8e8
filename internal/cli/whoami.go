package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/waynefred/ocean-journal/internal/identity"
	"github.com/waynefred/ocean-journal/internal/store"
)

// whoami prints the identity kept in the local badger store, creating it on
// first use.
func (a *app) whoami(cmd *cobra.Command) error {
	cfg := store.DefaultBadgerConfig(a.identityPath())
	cfg.Logger = a.logger
	kv, err := store.OpenBadger(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	sess, err := identity.NewProvider(kv).Session()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sess)
}
