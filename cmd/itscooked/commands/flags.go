package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// sharedFlags maps config keys to flags defined on more than one command.
var sharedFlags = map[string]string{
	"db_path":    "db-path",
	"jwt_secret": "jwt-secret",
	"jwt_issuer": "jwt-issuer",
}

func addStoreFlags(fs *pflag.FlagSet) {
	fs.String("db-path", "itscooked.db", "SQLite database file")
}

func addAuthFlags(fs *pflag.FlagSet) {
	fs.String("jwt-secret", "", "HMAC secret for API tokens (or ITSCOOKED_JWT_SECRET)")
	fs.String("jwt-issuer", "itscooked", "required token issuer (empty to skip the check)")
}

// bindSharedFlags binds sharedFlags to the running command's flags. Binding
// happens at run time because viper keeps one flag per key.
func bindSharedFlags(cmd *cobra.Command, _ []string) error {
	for key, name := range sharedFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}
