// skiffctl is a small operator CLI for a running skiffd.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	apiKey  string
)

func main() {
	root := &cobra.Command{
		Use:           "skiffctl",
		Short:         "skiffctl talks to a running skiffd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "addr", "http://localhost:8080", "skiffd base URL")
	root.PersistentFlags().StringVar(&apiKey, "api-key", "", "x-api-key header value")

	root.AddCommand(pingCmd(), createCmd(), listCmd(), attachDiskCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "skiffctl:", err)
		os.Exit(1)
	}
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "check that skiffd is up",
		RunE: func(_ *cobra.Command, _ []string) error {
			return request(http.MethodGet, "/healthz", nil)
		},
	}
}

func createCmd() *cobra.Command {
	var name string
	var cpu, ram, storage int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a server",
		RunE: func(_ *cobra.Command, _ []string) error {
			body := map[string]any{
				"name":       name,
				"cpu_cores":  cpu,
				"ram_gb":     ram,
				"storage_gb": storage,
			}
			return request(http.MethodPost, "/servers", body)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "server name")
	cmd.Flags().IntVar(&cpu, "cpu", 1, "cpu cores")
	cmd.Flags().IntVar(&ram, "ram", 1, "RAM in GB")
	cmd.Flags().IntVar(&storage, "storage", 10, "root storage in GB")
	cmd.MarkFlagRequired("name")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list all servers",
		RunE: func(_ *cobra.Command, _ []string) error {
			return request(http.MethodGet, "/servers", nil)
		},
	}
}

func attachDiskCmd() *cobra.Command {
	var id string
	var size int
	cmd := &cobra.Command{
		Use:   "attach-disk",
		Short: "attach a disk to a server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return request(http.MethodPost, "/servers/"+id+"/disks", map[string]any{"size_gb": size})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "server id")
	cmd.Flags().IntVar(&size, "size", 0, "disk size in GB")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("size")
	return cmd
}

func request(method, path string, body any) error {
	var buf io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(bs)
	}
	req, err := http.NewRequest(method, baseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// re-indent for the terminal; fall back to the raw body
	var pretty bytes.Buffer
	if json.Indent(&pretty, out, "", "  ") == nil {
		out = pretty.Bytes()
	}
	fmt.Printf("%s\n%s\n", resp.Status, out)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with %s", resp.Status)
	}
	return nil
}
