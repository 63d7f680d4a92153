package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// SampleCSV is the demo price list: 15 valid products followed by one line
// for each rejection reason a file usually contains.
const SampleCSV = `Name,Price
Laptop,1299.99
Smartphone,899.50
Headphones,299.99
Mouse,49.99
Keyboard,129.99
Monitor,349.99
Tablet,599.99
Gaming Console,499.99
Camera,799.99
Speaker,199.99
Microphone,89.99
Webcam,159.99
Printer,249.99
Scanner,179.99
External Hard Drive,89.99
,199.99
Invalid Product,abc
Negative Product,-50.00
Expensive Product,2000000.00
Null Price,
Only Name
`

func newSampleCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a demo CSV with valid and malformed lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
			if force {
				flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			}
			f, err := os.OpenFile(path, flags, 0o644)
			if err != nil {
				return fmt.Errorf("creating sample: %w", err)
			}
			if _, err := f.WriteString(SampleCSV); err != nil {
				f.Close()
				return fmt.Errorf("writing sample: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("writing sample: %w", err)
			}

			cmd.Printf("Sample written to %s (15 valid lines, 6 malformed)\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "products.csv", "file to create")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
