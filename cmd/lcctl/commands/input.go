package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// readBytesArg decodes a hex argument. An argument starting with @ names a file holding
// the hex encoding instead. The 0x prefix is optional.
func readBytesArg(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "@") {
		bz, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, err
		}
		arg = strings.TrimSpace(string(bz))
	}

	if !strings.HasPrefix(arg, "0x") && !strings.HasPrefix(arg, "0X") {
		arg = "0x" + arg
	}

	bz, err := hexutil.Decode(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return bz, nil
}
