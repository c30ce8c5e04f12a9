package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsmgo/yubihsm-go/commands"
	"github.com/hsmgo/yubihsm-go/connector"
)

var echoCmd = &cobra.Command{
	Use:   "echo [message]",
	Short: "Send an unauthenticated Echo command through the HTTP relay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		transport := connector.NewHTTPTransport(fmt.Sprintf("%s:%d", cfg.addr, cfg.port))

		echoCmd, err := commands.CreateEchoCommand([]byte(args[0]))
		if err != nil {
			return err
		}
		wireFrame, err := echoCmd.Serialize()
		if err != nil {
			return err
		}
		if err := transport.Send(wireFrame); err != nil {
			return err
		}
		resp, err := transport.Recv()
		if err != nil {
			return err
		}

		parsed, err := commands.ParseResponse(resp)
		if err != nil {
			return err
		}
		echoResp, ok := parsed.(*commands.EchoResponse)
		if !ok {
			return fmt.Errorf("hsm-connector: unexpected response to Echo")
		}

		fmt.Println(string(echoResp.Data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(echoCmd)
}
