package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/tablecall/internal/config"
	"github.com/example/tablecall/internal/vapi"
)

func newCallCmd() *cobra.Command {
	var (
		phone   string
		name    string
		account string
	)

	c := &cobra.Command{
		Use:   "call",
		Short: "Manually trigger an outbound call",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			if phone == "" {
				phone = cfg.CustomerPhone
			}
			if phone == "" {
				return fmt.Errorf("no phone number; pass --phone or set CUSTOMER_PHONE_NUMBER")
			}

			variables := map[string]string{}
			if name != "" {
				variables["customerName"] = name
			}
			if account != "" {
				variables["accountId"] = account
			}

			client := vapi.New(vapi.Config{
				BaseURL:       cfg.VapiAPIURL,
				PrivateKey:    cfg.VapiPrivateKey,
				AssistantID:   cfg.VapiAssistantID,
				PhoneNumberID: cfg.VapiPhoneNumberID,
				Timeout:       cfg.DispatchTimeout,
			})

			id, status, err := client.TriggerCall(context.Background(), phone, variables)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "call initiated\n  id     : %s\n  status : %s\n  to     : %s\n", id, status, phone)
			return nil
		},
	}

	c.Flags().StringVar(&phone, "phone", "", "destination phone number (E.164); defaults to CUSTOMER_PHONE_NUMBER")
	c.Flags().StringVar(&name, "name", "", "customer name to pass as a variable")
	c.Flags().StringVar(&account, "account", "", "account id to pass as a variable")
	return c
}
