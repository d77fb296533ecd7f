package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/tablecall/internal/config"
	"github.com/example/tablecall/internal/vapi"
)

func newAssistantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Manage the voice assistant configuration",
	}
	cmd.AddCommand(newAssistantSyncCmd())
	return cmd
}

func newAssistantSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the booking prompt, tool schemas, and server URLs to the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.VapiAssistantID == "" {
				return fmt.Errorf("VAPI_ASSISTANT_ID is required")
			}

			client := vapi.New(vapi.Config{
				BaseURL:       cfg.VapiAPIURL,
				PrivateKey:    cfg.VapiPrivateKey,
				AssistantID:   cfg.VapiAssistantID,
				PhoneNumberID: cfg.VapiPhoneNumberID,
				Timeout:       cfg.DispatchTimeout,
			})

			if err := client.SyncAssistant(context.Background(), cfg.BaseURL); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "assistant %s synced (tools → %s/vapi/tools, events → %s/vapi/events)\n",
				cfg.VapiAssistantID, cfg.BaseURL, cfg.BaseURL)
			return nil
		},
	}
}
