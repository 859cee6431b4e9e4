package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/crewcal/internal/calendar"
	"github.com/ShayCichocki/crewcal/internal/config"
)

var importDays int

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Connect and manage employee calendars",
}

var calendarConnectCmd = &cobra.Command{
	Use:   "connect <identity-id>",
	Short: "Connect an identity's calendar",
	Long: `Connect the calendar of an identity.

With the google provider this prints a consent URL. Open it, approve access,
and pass the code Google returns to 'crewcal calendar callback'.
With the local provider the identity is connected immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		identity, err := a.dir.GetIdentity(args[0])
		if err != nil {
			return err
		}

		if a.oauth == nil {
			if err := a.dir.SetCredential(identity.ID, calendar.LocalHandle(identity.ID)); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Connected %s to the local calendar", identity.DisplayName), color.FgGreen)
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Open this URL to connect %s's Google Calendar:\n\n  %s\n\n", identity.DisplayName, a.oauth.AuthURL(identity.ID))
		fmt.Fprintf(out, "Then run:\n\n  crewcal calendar callback %s <code>\n", identity.ID)
		return nil
	},
}

var calendarCallbackCmd = &cobra.Command{
	Use:   "callback <identity-id> <code>",
	Short: "Finish a Google Calendar connection with the consent code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.oauth == nil {
			return fmt.Errorf("calendar.provider is %q; callback only applies to %q", appConfig.Calendar.Provider, config.ProviderGoogle)
		}

		identity, err := a.dir.GetIdentity(args[0])
		if err != nil {
			return err
		}
		tok, err := a.oauth.Exchange(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		if err := a.dir.ConnectCalendar(identity.ID, calendar.GoogleHandle(identity.ID), tok); err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Connected %s's Google Calendar", identity.DisplayName), color.FgGreen)
		return nil
	},
}

var calendarDisconnectCmd = &cobra.Command{
	Use:   "disconnect <identity-id>",
	Short: "Forget an identity's calendar credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openDirectory(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dir.ClearCredential(args[0]); err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), "✓", "Disconnected "+args[0], color.FgGreen)
		return nil
	},
}

var calendarImportCmd = &cobra.Command{
	Use:   "import <identity-id> <calendar.ics>",
	Short: "Load events from an iCalendar file into the local calendar",
	Long: `Import the events of an iCalendar (.ics) file into a connected identity's
local calendar. Recurring events are expanded from now until --days ahead.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.local == nil {
			return errors.New("ICS import needs calendar.provider set to local")
		}
		identity, err := a.dir.GetIdentity(args[0])
		if err != nil {
			return err
		}
		if !identity.Connected() {
			return fmt.Errorf("%s has no connected calendar; run: crewcal calendar connect %s", identity.DisplayName, identity.ID)
		}

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		now := time.Now()
		res, err := calendar.ImportICS(cmd.Context(), a.local, identity.CredentialHandle, f, now, now.AddDate(0, 0, importDays))
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Imported %d events for %s (%d unreadable entries skipped)", res.Created, identity.DisplayName, res.Skipped), color.FgGreen)
		return nil
	},
}

func init() {
	calendarImportCmd.Flags().IntVar(&importDays, "days", 90, "How far ahead to expand recurring events")

	calendarCmd.AddCommand(calendarConnectCmd)
	calendarCmd.AddCommand(calendarCallbackCmd)
	calendarCmd.AddCommand(calendarDisconnectCmd)
	calendarCmd.AddCommand(calendarImportCmd)
}
