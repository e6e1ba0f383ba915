package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"dnsjumper/internal/app"
)

// ensureApp lazily initializes appInstance for shell completion.
// Cobra may invoke ValidArgsFunction without running PersistentPreRunE.
func ensureApp() error {
	if appInstance != nil {
		return nil
	}
	var err error
	appInstance, err = app.New()
	return err
}

// completeProfileNames provides shell completion for profile names.
func completeProfileNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := ensureApp(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var completions []string
	for _, p := range appInstance.Profiles.List() {
		if strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(toComplete)) {
			completions = append(completions, p.Name)
		}
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}
