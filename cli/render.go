package cli

import (
	"crypto"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digitorus/memorycard"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		outDir     string
		sheet      bool
		pageBorder bool
		sc         memorycard.SealConfig
		digest     string
	)
	cmd := &cobra.Command{
		Use:   "render <card.toml>",
		Short: "Export a card as a PDF document",
		Example: `  memorycard render dk-cbgb.toml
  memorycard render --sheet -o out/ dk-cbgb.toml
  memorycard render --sign-cert cert.pem --sign-key key.pem --tsa http://timestamp.digicert.com dk-cbgb.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadCard(args[0])
			if err != nil {
				return err
			}
			settings, err := memorycard.SettingsFrom(a.cfg)
			if err != nil {
				return err
			}
			settings.PageBorder = pageBorder
			if outDir == "" {
				outDir = a.cfg.OutputDir
			}

			opts := []memorycard.Option{
				memorycard.WithSettings(settings),
				memorycard.WithDeliverer(memorycard.FileDeliverer{Dir: outDir}),
				memorycard.WithLogger(a.log),
			}
			if sc.CertificatePath != "" || sc.KeyPath != "" {
				if sc.Digest, err = parseDigest(digest); err != nil {
					return err
				}
				s, err := memorycard.LoadSealer(sc)
				if err != nil {
					return err
				}
				opts = append(opts, memorycard.WithSealer(s))
			}

			s := memorycard.NewSession(memorycard.New(opts...))
			defer s.Close()
			s.Load(req)

			var res *memorycard.Result
			if sheet {
				res, err = s.ExportSheet(cmd.Context())
			} else {
				res, err = s.Export(cmd.Context())
			}
			n := memorycard.NoticeFor(res, err)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", n.Title, n.Message)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Location)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&sheet, "sheet", false, "Export the card as paginated text")
	cmd.Flags().BoolVar(&pageBorder, "page-border", false, "Frame the page in the card's border style")
	cmd.Flags().StringVar(&sc.CertificatePath, "sign-cert", "", "PEM certificate chain to seal the document with")
	cmd.Flags().StringVar(&sc.KeyPath, "sign-key", "", "PEM private key of the sealing certificate")
	cmd.Flags().StringVar(&sc.TSA.URL, "tsa", "", "RFC 3161 time stamp authority URL")
	cmd.Flags().StringVar(&sc.TSA.Username, "tsa-username", "", "Time stamp authority username")
	cmd.Flags().StringVar(&sc.TSA.Password, "tsa-password", "", "Time stamp authority password")
	cmd.Flags().StringVar(&digest, "digest", "sha256", "Seal digest: sha256, sha384 or sha512")
	cmd.MarkFlagsRequiredTogether("sign-cert", "sign-key")
	return cmd
}

func parseDigest(s string) (crypto.Hash, error) {
	switch s {
	case "", "sha256":
		return crypto.SHA256, nil
	case "sha384":
		return crypto.SHA384, nil
	case "sha512":
		return crypto.SHA512, nil
	}
	return 0, fmt.Errorf("unsupported digest %q", s)
}
