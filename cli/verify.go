package cli

import (
	"crypto/x509"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/digitorus/memorycard"
)

func (a *app) inspectCmd() *cobra.Command {
	var sealPath, rootsPath string
	cmd := &cobra.Command{
		Use:   "inspect <document.pdf>",
		Short: "Print the metadata, pages and seal of an exported document",
		Example: `  memorycard inspect concert-memory-dead-kennedys-cbgb-1981-06-15.pdf
  memorycard inspect --seal card.pdf.p7s --roots ca.pem card.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if sealPath == "" {
				if _, err := os.Stat(args[0] + memorycard.SealSuffix); err == nil {
					sealPath = args[0] + memorycard.SealSuffix
				}
			}
			var sig []byte
			if sealPath != "" {
				if sig, err = os.ReadFile(sealPath); err != nil {
					return err
				}
			}
			var roots *x509.CertPool
			if rootsPath != "" {
				pem, err := os.ReadFile(rootsPath)
				if err != nil {
					return err
				}
				roots = x509.NewCertPool()
				if !roots.AppendCertsFromPEM(pem) {
					return fmt.Errorf("no certificates in %s", rootsPath)
				}
			}

			v, err := memorycard.Verify(data, sig, roots)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), v); err != nil {
				return err
			}
			if v.Seal != nil && !v.Seal.Valid {
				return fmt.Errorf("seal is not valid: %s", v.Seal.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sealPath, "seal", "", "Detached seal (default <document>.p7s when present)")
	cmd.Flags().StringVar(&rootsPath, "roots", "", "PEM file with trusted root certificates")
	return cmd
}
