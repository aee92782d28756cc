package utxoserialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/utxocommit/utxocommitd/util/binaryserializer"
)

// OutpointIDSize is the size of an outpoint's transaction identifier.
const OutpointIDSize = 32

// Outpoint identifies one transaction output.
type Outpoint struct {
	TxID  [OutpointIDSize]byte
	Index uint32
}

// UTXOEntry holds the spendable payload of one unspent output together with
// the metadata of the block that created it.
type UTXOEntry struct {
	Amount       uint64
	ScriptPubKey []byte
	BlockHeight  uint64
	IsCoinbase   bool
}

// headerCode encodes the block height shifted over one bit with the
// coinbase flag in the lowest bit.
func headerCode(entry *UTXOEntry) uint64 {
	code := entry.BlockHeight << 1
	if entry.IsCoinbase {
		code |= 0x01
	}
	return code
}

// SerializeUTXO returns the canonical element bytes for the given output:
// the outpoint ID, the little-endian outpoint index, the varint header
// code, the little-endian amount, and the length-prefixed script. These are
// the opaque elements the commitment engine consumes.
func SerializeUTXO(outpoint *Outpoint, entry *UTXOEntry) ([]byte, error) {
	w := &bytes.Buffer{}

	_, err := w.Write(outpoint.TxID[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = binaryserializer.PutUint32(w, outpoint.Index)
	if err != nil {
		return nil, err
	}
	err = WriteVarInt(w, headerCode(entry))
	if err != nil {
		return nil, err
	}
	err = binaryserializer.PutUint64(w, entry.Amount)
	if err != nil {
		return nil, err
	}
	err = WriteVarInt(w, uint64(len(entry.ScriptPubKey)))
	if err != nil {
		return nil, err
	}
	_, err = w.Write(entry.ScriptPubKey)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return w.Bytes(), nil
}

// DeserializeUTXO decodes an element produced by SerializeUTXO.
func DeserializeUTXO(element []byte) (*Outpoint, *UTXOEntry, error) {
	r := bytes.NewReader(element)

	outpoint := &Outpoint{}
	_, err := io.ReadFull(r, outpoint.TxID[:])
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	outpoint.Index, err = binaryserializer.Uint32(r)
	if err != nil {
		return nil, nil, err
	}

	entry := &UTXOEntry{}
	code, err := ReadVarInt(r)
	if err != nil {
		return nil, nil, err
	}
	entry.BlockHeight = code >> 1
	entry.IsCoinbase = code&0x01 != 0

	entry.Amount, err = binaryserializer.Uint64(r)
	if err != nil {
		return nil, nil, err
	}

	scriptLength, err := ReadVarInt(r)
	if err != nil {
		return nil, nil, err
	}
	if scriptLength > uint64(r.Len()) {
		return nil, nil, errors.Errorf("script length %d exceeds the %d remaining bytes",
			scriptLength, r.Len())
	}
	entry.ScriptPubKey = make([]byte, scriptLength)
	_, err = io.ReadFull(r, entry.ScriptPubKey)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	return outpoint, entry, nil
}
