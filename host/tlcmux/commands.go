package tlcmux

import (
	"tlcmux/protocol"
)

// Clear sets every channel of every row to zero
func (c *Client) Clear() error {
	_, err := c.exchange(protocol.CmdClear, 0, nil)
	return err
}

// ClearRow sets every channel of row to zero
func (c *Client) ClearRow(row int) error {
	if err := c.checkRow(row); err != nil {
		return c.invalid(protocol.CmdClearRow, err)
	}
	_, err := c.exchange(protocol.CmdClearRow, 0, rowArg(row))
	return err
}

// Set sets one channel of row to value
func (c *Client) Set(row, channel, value int) error {
	if err := validate(c.checkRow(row), c.checkChannel(channel), checkValue(value)); err != nil {
		return c.invalid(protocol.CmdSet, err)
	}
	_, err := c.exchange(protocol.CmdSet, 0, func(out protocol.OutputBuffer) error {
		addr, err := protocol.EncodeChannelAddr(channel, c.shape.AddrBytes)
		if err != nil {
			return err
		}
		protocol.EncodeByte(out, byte(row))
		out.Output(addr)
		protocol.EncodeValue(out, uint16(value))
		return nil
	})
	return err
}

// SetRow sets every channel of row; values[i] goes to channel i
func (c *Client) SetRow(row int, values []int) error {
	if err := validate(c.checkRow(row), checkLength("values length", len(values), c.shape.Channels())); err != nil {
		return c.invalid(protocol.CmdSetRow, err)
	}
	for _, v := range values {
		if err := checkValue(v); err != nil {
			return c.invalid(protocol.CmdSetRow, err)
		}
	}
	_, err := c.exchange(protocol.CmdSetRow, 0, func(out protocol.OutputBuffer) error {
		protocol.EncodeByte(out, byte(row))
		for _, v := range values {
			protocol.EncodeValue(out, uint16(v))
		}
		return nil
	})
	return err
}

// SetAll sets every channel of every row to value
func (c *Client) SetAll(value int) error {
	if err := checkValue(value); err != nil {
		return c.invalid(protocol.CmdSetAll, err)
	}
	_, err := c.exchange(protocol.CmdSetAll, 0, func(out protocol.OutputBuffer) error {
		protocol.EncodeValue(out, uint16(value))
		return nil
	})
	return err
}

// SetRowAll sets every channel of row to value
func (c *Client) SetRowAll(row, value int) error {
	if err := validate(c.checkRow(row), checkValue(value)); err != nil {
		return c.invalid(protocol.CmdSetRowAll, err)
	}
	_, err := c.exchange(protocol.CmdSetRowAll, 0, func(out protocol.OutputBuffer) error {
		protocol.EncodeByte(out, byte(row))
		protocol.EncodeValue(out, uint16(value))
		return nil
	})
	return err
}

// Get reads one channel of row
func (c *Client) Get(row, channel int) (int, error) {
	if err := validate(c.checkRow(row), c.checkChannel(channel)); err != nil {
		return 0, c.invalid(protocol.CmdGet, err)
	}
	resp, err := c.exchange(protocol.CmdGet, protocol.ValueSize, func(out protocol.OutputBuffer) error {
		addr, err := protocol.EncodeChannelAddr(channel, c.shape.AddrBytes)
		if err != nil {
			return err
		}
		protocol.EncodeByte(out, byte(row))
		out.Output(addr)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(protocol.Unpack16Pair(resp[0], resp[1])), nil
}

// GetRow reads every channel of row, in channel order
func (c *Client) GetRow(row int) ([]int, error) {
	if err := c.checkRow(row); err != nil {
		return nil, c.invalid(protocol.CmdGetRow, err)
	}
	n := c.shape.Channels()
	resp, err := c.exchange(protocol.CmdGetRow, n*protocol.ValueSize, rowArg(row))
	if err != nil {
		return nil, err
	}
	values := make([]int, n)
	for i := range values {
		values[i] = int(protocol.Unpack16Pair(resp[2*i], resp[2*i+1]))
	}
	return values, nil
}

// ModifyRow replaces the packed grayscale data of row. data must already
// be in wire layout (see protocol.PackRow).
func (c *Client) ModifyRow(row int, data []byte) error {
	if err := validate(c.checkRow(row), checkLength("data length", len(data), c.shape.RowBytes())); err != nil {
		return c.invalid(protocol.CmdModifyRow, err)
	}
	_, err := c.exchange(protocol.CmdModifyRow, 0, func(out protocol.OutputBuffer) error {
		protocol.EncodeByte(out, byte(row))
		out.Output(data)
		return nil
	})
	return err
}

// ModifyArray overwrites len(data) bytes of the packed grayscale array
// starting at offset. Rows are concatenated in row order.
func (c *Client) ModifyArray(offset int, data []byte) error {
	arrayLen := c.shape.ArrayBytes()
	if err := validate(
		protocol.CheckRange("offset", offset, 0, min(arrayLen-1, 0xFFFF)),
		protocol.CheckRange("data length", len(data), 1, min(arrayLen-offset, 0xFFFF)),
	); err != nil {
		return c.invalid(protocol.CmdModifyArray, err)
	}
	_, err := c.exchange(protocol.CmdModifyArray, 0, func(out protocol.OutputBuffer) error {
		protocol.EncodeValue(out, uint16(offset))
		protocol.EncodeValue(out, uint16(len(data)))
		out.Output(data)
		return nil
	})
	return err
}
