package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/crewcal/internal/directory"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

var (
	addName     string
	addEmail    string
	addTimezone string
	addCompany  string
	addPosition string
	listRole    string
)

var directoryCmd = &cobra.Command{
	Use:     "directory",
	Aliases: []string{"dir"},
	Short:   "Manage employees and supervisors",
}

var directoryAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(func(dir *directory.DB) error {
			i := models.Identity{
				ID:             args[0],
				Role:           models.RoleEmployee,
				DisplayName:    addName,
				ContactAddress: addEmail,
				Timezone:       addTimezone,
			}
			if err := dir.CreateIdentity(&i); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Added employee %s (%s, %s)", i.DisplayName, i.ID, i.Location()), color.FgGreen)
			return nil
		})
	},
}

var directoryAddSupervisorCmd = &cobra.Command{
	Use:   "add-supervisor <id>",
	Short: "Add a supervisor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(func(dir *directory.DB) error {
			s := models.Supervisor{
				Identity: models.Identity{
					ID:             args[0],
					DisplayName:    addName,
					ContactAddress: addEmail,
					Timezone:       addTimezone,
				},
				Company:  addCompany,
				Position: addPosition,
			}
			if err := dir.CreateSupervisor(&s); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Added supervisor %s (%s)", s.DisplayName, s.Title()), color.FgGreen)
			return nil
		})
	},
}

var directoryRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(func(dir *directory.DB) error {
			if err := dir.DeleteIdentity(args[0]); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", "Removed "+args[0], color.FgGreen)
			return nil
		})
	},
}

var directoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities with their agent and calendar status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.Role(listRole)
		if role != "" && !role.Valid() {
			return fmt.Errorf("unknown role %q (use employee or supervisor)", listRole)
		}
		return withDirectory(func(dir *directory.DB) error {
			identities, err := dir.ListIdentities(role)
			if err != nil {
				return err
			}
			if len(identities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No identities. Add one with 'crewcal directory add' or 'crewcal directory import'.")
				return nil
			}
			writeIdentities(cmd.OutOrStdout(), identities)
			return nil
		})
	},
}

var directoryImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Import employees and supervisors from a YAML file",
	Long: `Import identities from a YAML seed file. Identities whose id already
exists are skipped, so the same file can be imported repeatedly.

  employees:
    - id: alice
      display_name: Alice Smith
      contact_address: alice@example.com
      timezone: Europe/Berlin
  supervisors:
    - id: bo
      display_name: Bo Boss
      company: Acme`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		seed, err := directory.ParseSeed(f)
		if err != nil {
			return err
		}
		return withDirectory(func(dir *directory.DB) error {
			res, err := dir.Import(seed)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Imported %d identities (%d already present)", res.Created, res.Skipped), color.FgGreen)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{directoryAddCmd, directoryAddSupervisorCmd} {
		c.Flags().StringVar(&addName, "name", "", "Display name (required)")
		c.Flags().StringVar(&addEmail, "email", "", "Contact address")
		c.Flags().StringVar(&addTimezone, "timezone", "UTC", "IANA timezone, e.g. Europe/Berlin")
		_ = c.MarkFlagRequired("name")
	}
	directoryAddSupervisorCmd.Flags().StringVar(&addCompany, "company", "", "Company the supervisor manages")
	directoryAddSupervisorCmd.Flags().StringVar(&addPosition, "position", "", "Position (default Manager)")
	directoryListCmd.Flags().StringVar(&listRole, "role", "", "Only list employee or supervisor identities")

	directoryCmd.AddCommand(directoryAddCmd)
	directoryCmd.AddCommand(directoryAddSupervisorCmd)
	directoryCmd.AddCommand(directoryRemoveCmd)
	directoryCmd.AddCommand(directoryListCmd)
	directoryCmd.AddCommand(directoryImportCmd)
}

func withDirectory(fn func(dir *directory.DB) error) error {
	a, err := openDirectory(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a.dir)
}

func writeIdentities(w io.Writer, identities []models.Identity) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tROLE\tTIMEZONE\tSTATUS")
	for _, i := range identities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", i.ID, i.DisplayName, i.Role, i.Location(), statusString(i.Status))
	}
	_ = tw.Flush()
}

func statusString(s models.ConnectionStatus) string {
	switch s {
	case models.StatusConnected:
		return color.GreenString("connected")
	case models.StatusCreated:
		return color.YellowString("setup required")
	default:
		return color.HiBlackString("inactive")
	}
}

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}
