package sim

import (
	"fmt"

	"tlcmux/protocol"
)

func (d *Device) registerCommands() {
	d.commands.register(protocol.CmdInfo, d.handleInfo)
	d.commands.register(protocol.CmdClear, d.handleClear)
	d.commands.register(protocol.CmdClearRow, d.handleClearRow)
	d.commands.register(protocol.CmdSet, d.handleSet)
	d.commands.register(protocol.CmdSetRow, d.handleSetRow)
	d.commands.register(protocol.CmdSetAll, d.handleSetAll)
	d.commands.register(protocol.CmdSetRowAll, d.handleSetRowAll)
	d.commands.register(protocol.CmdGet, d.handleGet)
	d.commands.register(protocol.CmdGetRow, d.handleGetRow)
	d.commands.register(protocol.CmdModifyRow, d.handleModifyRow)
	d.commands.register(protocol.CmdModifyArray, d.handleModifyArray)
}

func (d *Device) channels() int {
	return d.cfg.Drivers * protocol.ChannelsPerDriver
}

func (d *Device) decodeRow(args protocol.InputBuffer) ([]byte, error) {
	row, err := protocol.DecodeByte(args)
	if err != nil {
		return nil, err
	}
	if int(row) >= d.cfg.Rows {
		return nil, fmt.Errorf("%w: row %d of %d", protocol.ErrProtocol, row, d.cfg.Rows)
	}
	return d.row(int(row)), nil
}

func (d *Device) decodeChannel(args protocol.InputBuffer) (int, error) {
	ch, err := protocol.DecodeChannelAddr(args, d.cfg.AddrBytes)
	if err != nil {
		return 0, err
	}
	if ch >= d.channels() {
		return 0, fmt.Errorf("%w: channel %d of %d", protocol.ErrProtocol, ch, d.channels())
	}
	return ch, nil
}

func decodeGrayscale(args protocol.InputBuffer) (uint16, error) {
	v, err := protocol.DecodeValue(args)
	if err != nil {
		return 0, err
	}
	if v > protocol.MaxValue {
		return 0, fmt.Errorf("%w: value %d exceeds %d", protocol.ErrProtocol, v, protocol.MaxValue)
	}
	return v, nil
}

// fillRow writes value to every channel, as the firmware's setRow does
func fillRow(row []byte, value uint16) {
	pair := protocol.PackChannelPair(value, value)
	for i := 0; i+2 < len(row); i += 3 {
		copy(row[i:i+3], pair[:])
	}
}

func (d *Device) handleInfo(args protocol.InputBuffer) ([]byte, error) {
	return []byte{
		d.cfg.Version,
		byte(d.cfg.Drivers),
		byte(d.cfg.Rows),
		'0' + byte(d.cfg.AddrBytes),
	}, nil
}

func (d *Device) handleClear(args protocol.InputBuffer) ([]byte, error) {
	clear(d.array)
	return nil, nil
}

func (d *Device) handleClearRow(args protocol.InputBuffer) ([]byte, error) {
	row, err := d.decodeRow(args)
	if err != nil {
		return nil, err
	}
	clear(row)
	return nil, nil
}

func (d *Device) handleSet(args protocol.InputBuffer) ([]byte, error) {
	row, err := d.decodeRow(args)
	if err != nil {
		return nil, err
	}
	ch, err := d.decodeChannel(args)
	if err != nil {
		return nil, err
	}
	v, err := decodeGrayscale(args)
	if err != nil {
		return nil, err
	}
	protocol.SetPackedValue(row, ch, v)
	return nil, nil
}

func (d *Device) handleSetRow(args protocol.InputBuffer) ([]byte, error) {
	row, err := d.decodeRow(args)
	if err != nil {
		return nil, err
	}
	values := make([]uint16, d.channels())
	for i := range values {
		if values[i], err = decodeGrayscale(args); err != nil {
			return nil, err
		}
	}
	copy(row, protocol.PackRow(values))
	return nil, nil
}

func (d *Device) handleSetAll(args protocol.InputBuffer) ([]byte, error) {
	v, err := decodeGrayscale(args)
	if err != nil {
		return nil, err
	}
	fillRow(d.array, v)
	return nil, nil
}

func (d *Device) handleSetRowAll(args protocol.InputBuffer) ([]byte, error) {
	row, err := d.decodeRow(args)
	if err != nil {
		return nil, err
	}
	v, err := decodeGrayscale(args)
	if err != nil {
		return nil, err
	}
	fillRow(row, v)
	return nil, nil
}

func (d *Device) handleGet(args protocol.InputBuffer) ([]byte, error) {
	row, err := d.decodeRow(args)
	if err != nil {
		return nil, err
	}
	ch, err := d.decodeChannel(args)
	if err != nil {
		return nil, err
	}
	b := protocol.Encode16(protocol.PackedValue(row, ch))
	return b[:], nil
}

func (d *Device) handleGetRow(args protocol.InputBuffer) ([]byte, error) {
	row, err := d.decodeRow(args)
	if err != nil {
		return nil, err
	}
	resp := make([]byte, 0, d.channels()*protocol.ValueSize)
	for ch := 0; ch < d.channels(); ch++ {
		b := protocol.Encode16(protocol.PackedValue(row, ch))
		resp = append(resp, b[:]...)
	}
	return resp, nil
}

func (d *Device) handleModifyRow(args protocol.InputBuffer) ([]byte, error) {
	row, err := d.decodeRow(args)
	if err != nil {
		return nil, err
	}
	data, err := protocol.DecodeBytes(args, d.rowBytes)
	if err != nil {
		return nil, err
	}
	copy(row, data)
	return nil, nil
}

func (d *Device) handleModifyArray(args protocol.InputBuffer) ([]byte, error) {
	offset, err := protocol.DecodeValue(args)
	if err != nil {
		return nil, err
	}
	length, err := protocol.DecodeValue(args)
	if err != nil {
		return nil, err
	}
	if int(offset)+int(length) > len(d.array) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d overrun the %d byte array", protocol.ErrProtocol, length, offset, len(d.array))
	}
	data, err := protocol.DecodeBytes(args, int(length))
	if err != nil {
		return nil, err
	}
	copy(d.array[offset:], data)
	return nil, nil
}
