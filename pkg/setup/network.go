package setup

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/protocol"
)

// NetworkParams identifies a network: its PAN id and an optional link key.
// A nil LinkKey means no encryption.
type NetworkParams struct {
	PanID   uint16
	LinkKey *big.Int
}

// Validate checks the widths of the PAN id and link key.
func (p NetworkParams) Validate() error {
	if p.PanID >= 1<<protocol.PanIDBits {
		return fmt.Errorf("PAN id 0x%x exceeds %d bits", p.PanID, protocol.PanIDBits)
	}
	if p.LinkKey != nil {
		if p.LinkKey.Sign() < 0 || p.LinkKey.BitLen() > protocol.LinkKeyBits {
			return fmt.Errorf("link key exceeds %d bits", protocol.LinkKeyBits)
		}
	}
	return nil
}

// Encrypted tells whether the network uses a link key.
func (p NetworkParams) Encrypted() bool {
	return p.LinkKey != nil
}

// Equal compares two parameter sets.
func (p NetworkParams) Equal(o NetworkParams) bool {
	if p.PanID != o.PanID || p.Encrypted() != o.Encrypted() {
		return false
	}
	return !p.Encrypted() || p.LinkKey.Cmp(o.LinkKey) == 0
}

func (p NetworkParams) String() string {
	if !p.Encrypted() {
		return fmt.Sprintf("PAN ID 0x%X, no encryption", p.PanID)
	}
	return fmt.Sprintf("PAN ID 0x%X, link key 0x%X", p.PanID, p.LinkKey)
}

// GenerateNetworkParams picks a random PAN id and, when encrypted, a
// random link key.
func GenerateNetworkParams(encrypted bool) (NetworkParams, error) {
	id, err := rand.Int(rand.Reader, big.NewInt(1<<protocol.PanIDBits))
	if err != nil {
		return NetworkParams{}, err
	}
	p := NetworkParams{PanID: uint16(id.Uint64())}
	if encrypted {
		max := new(big.Int).Lsh(big.NewInt(1), protocol.LinkKeyBits)
		if p.LinkKey, err = rand.Int(rand.Reader, max); err != nil {
			return NetworkParams{}, err
		}
	}
	return p, nil
}

// SetNetworkParams writes the network parameters into the local module
// and saves them to non-volatile memory: ID, EE, KY (when encrypted), WR.
// Each command waits for an OK response before the next is sent.
func SetNetworkParams(ctx context.Context, r Requester, p NetworkParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	glog.Infof("set %s", p)

	setID, err := protocol.NewCommand(protocol.NamePanID, protocol.WithNumber(uint64(p.PanID)))
	if err != nil {
		return err
	}
	cmds := []protocol.Command{setID, protocol.NewEncryptionEnable(p.Encrypted())}
	if p.Encrypted() {
		setKey, err := protocol.NewCommand(protocol.NameLinkKey, protocol.WithBigNumber(p.LinkKey, protocol.LinkKeyBits/8))
		if err != nil {
			return err
		}
		cmds = append(cmds, setKey)
	}
	cmds = append(cmds, protocol.NewWrite())

	for _, cmd := range cmds {
		if _, err := exchange(ctx, r, cmd); err != nil {
			return fmt.Errorf("set network params: %w", err)
		}
	}
	return nil
}
