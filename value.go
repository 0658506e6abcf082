/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package memcache

import (
	"context"

	"github.com/nabbar/memcache/mvalue"
)

// SetString stores s under key using mvalue's UTF-8 adapter, tagging the
// item's flags so a later GetString round-trips it without the caller
// having to remember how it was encoded.
func (c *Client) SetString(ctx context.Context, key, s string, exptime uint32) error {
	data, flags, err := mvalue.EncodeString(s)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, uint32(flags), exptime)
}

// GetString fetches key and decodes it as a string. found is false if key
// is absent.
func (c *Client) GetString(ctx context.Context, key string) (value string, found bool, err error) {
	item, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return "", found, err
	}
	value, err = mvalue.DecodeString(item.Value, mvalue.Flag(item.Flags))
	return value, true, err
}

// SetInt stores n under key using mvalue's decimal-ASCII integer adapter.
func (c *Client) SetInt(ctx context.Context, key string, n int64, exptime uint32) error {
	data, flags, err := mvalue.EncodeInt(n)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, uint32(flags), exptime)
}

// GetInt fetches key and decodes it as a signed integer.
func (c *Client) GetInt(ctx context.Context, key string) (value int64, found bool, err error) {
	item, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return 0, found, err
	}
	value, err = mvalue.DecodeInt(item.Value, mvalue.Flag(item.Flags))
	return value, true, err
}

// SetBool stores b under key using mvalue's boolean adapter.
func (c *Client) SetBool(ctx context.Context, key string, b bool, exptime uint32) error {
	data, flags, err := mvalue.EncodeBool(b)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, uint32(flags), exptime)
}

// GetBool fetches key and decodes it as a boolean.
func (c *Client) GetBool(ctx context.Context, key string) (value bool, found bool, err error) {
	item, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return false, found, err
	}
	value, err = mvalue.DecodeBool(item.Value, mvalue.Flag(item.Flags))
	return value, true, err
}
