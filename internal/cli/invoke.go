package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/watzon/alyx-executor/internal/functions"
	"github.com/watzon/alyx-executor/internal/sdk"
)

var (
	invokeInput     string
	invokeInputFile string
	invokeRequestID string
	invokeAlyxURL   string
	invokeToken     string
	invokeUserID    string
	invokeEnv       map[string]string
)

// ErrInvocationFailed is returned when the function ran but reported an error.
var ErrInvocationFailed = errors.New("function invocation failed")

var invokeCmd = &cobra.Command{
	Use:   "invoke <function>",
	Short: "Run a function once and print the response",
	Long: `Run a function once, without the HTTP listener, and print the
response as JSON.

Input is read from --input, or from --input-file ("-" for stdin).
Database calls go to --alyx-url using --token.

Examples:
  alyx-executor invoke echo --input '{"name":"Ann"}'
  alyx-executor invoke notes --input-file req.json --alyx-url http://localhost:8090 --token $TOKEN`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeInput, "input", "i", "{}", "Function input as a JSON object")
	invokeCmd.Flags().StringVarP(&invokeInputFile, "input-file", "f", "", "Read function input from a file (- for stdin)")
	invokeCmd.Flags().StringVar(&invokeRequestID, "request-id", "", "Request ID (default: random UUID)")
	invokeCmd.Flags().StringVar(&invokeAlyxURL, "alyx-url", "", "Internal API base URL")
	invokeCmd.Flags().StringVar(&invokeToken, "token", "", "Internal API token")
	invokeCmd.Flags().StringVar(&invokeUserID, "user", "", "Invoke as an authenticated user with this ID")
	invokeCmd.Flags().StringToStringVarP(&invokeEnv, "env", "e", nil, "Environment variables for the function (KEY=VALUE)")

	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	input, err := readInvokeInput(cmd)
	if err != nil {
		return err
	}

	requestID := invokeRequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	req := &functions.FunctionRequest{
		RequestID: requestID,
		Function:  args[0],
		Input:     input,
		Context: &functions.FunctionContext{
			Env:           invokeEnv,
			AlyxURL:       invokeAlyxURL,
			InternalToken: invokeToken,
		},
	}
	if invokeUserID != "" {
		req.Context.Auth = &sdk.AuthContext{ID: invokeUserID}
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	resp, invokeErr := svc.Invoke(cmd.Context(), req)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}

	if invokeErr != nil {
		return invokeErr
	}
	if !resp.Success {
		return ErrInvocationFailed
	}
	return nil
}

func readInvokeInput(cmd *cobra.Command) (map[string]any, error) {
	data := []byte(invokeInput)
	switch invokeInputFile {
	case "":
	case "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		data = raw
	default:
		raw, err := os.ReadFile(invokeInputFile)
		if err != nil {
			return nil, fmt.Errorf("reading input file: %w", err)
		}
		data = raw
	}

	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}
