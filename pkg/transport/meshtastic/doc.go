// Package meshtastic talks to a Meshtastic radio over its stream API, either
// through the radio's TCP port (4403) or a USB serial device.
//
// Wire format: each protobuf message is framed as 0x94 0xC3 <len_hi> <len_lo>
// followed by len bytes (len <= 512). Bytes outside frames are the radio's
// debug console and are skipped. Only the handful of ToRadio/FromRadio
// fields the BBS needs are encoded, directly with protowire.
package meshtastic
