// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package byteio

// Reader is a little-endian cursor over a dex container's raw bytes.
type Reader struct {
	Data []byte
	Pos  uint32
}

func (self *Reader) U8() (data uint8) {
	self.Pos += 1
	return self.Data[self.Pos-1]
}

func (self *Reader) U16() (data uint16) {
	return uint16(self.U8()) + (uint16(self.U8()) << 8)
}

func (self *Reader) U32() (data uint32) {
	return uint32(self.U16()) + (uint32(self.U16()) << 16)
}

func (self *Reader) leb128() (result, size uint32) {
	b := self.U8()
	for b > 127 {
		result ^= uint32(b&0x7f) << size
		size += 7
		b = self.U8()
	}
	result ^= uint32(b&0x7f) << size
	size += 7
	return
}

func (self *Reader) Uleb128() uint32 {
	result, _ := self.leb128()
	return result
}

func (self *Reader) Sleb128() int32 {
	result, size := self.leb128()
	val := int32(result)
	if val >= 1<<(size-1) {
		val -= 1 << size
	}
	return val
}
