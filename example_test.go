package kmsheader_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/rbaliyan/kmsheader"
)

func ExampleParseARN() {
	arn, err := kmsheader.ParseARN("arn:aws:kms:us-east-1:111122223333:key/1234abcd-12ab-34cd-56ef-1234567890ab")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(arn.Region)
	fmt.Println(arn.Account)
	fmt.Println(arn.KeyID)
	// Output:
	// us-east-1
	// 111122223333
	// 1234abcd-12ab-34cd-56ef-1234567890ab
}

func ExampleFromARN() {
	h, err := kmsheader.FromARN("arn:aws:kms:us-east-1:111122223333:key/1234abcd-12ab-34cd-56ef-1234567890ab")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(h.Len())

	if err := h.SetKeySpec(kmsheader.RSA2048); err != nil {
		log.Fatal(err)
	}
	fmt.Println(h.Len())

	data, err := h.Bytes()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("algorithm byte: 0x%02x\n", data[35])
	// Output:
	// 35
	// 36
	// algorithm byte: 0x21
}

func ExampleParse() {
	h, err := kmsheader.FromARN("arn:aws:kms:eu-west-2:999988887777:key/1234abcd-12ab-34cd-56ef-1234567890ab",
		kmsheader.WithKeySpec(kmsheader.RSA2048))
	if err != nil {
		log.Fatal(err)
	}
	if err := h.SetCipherData(bytes.Repeat([]byte{0xaa}, 256)); err != nil {
		log.Fatal(err)
	}
	header, err := h.Bytes()
	if err != nil {
		log.Fatal(err)
	}

	// A stored blob is the header followed by the symmetric payload; Len
	// reports where the payload starts.
	blob := append(header, []byte("application payload")...)

	parsed, err := kmsheader.Parse(blob)
	if err != nil {
		log.Fatal(err)
	}
	arn, _ := parsed.ARN()
	fmt.Println(arn)
	fmt.Println(parsed.Len())
	fmt.Println(string(blob[parsed.Len():]))
	// Output:
	// arn:aws:kms:eu-west-2:999988887777:key/1234abcd-12ab-34cd-56ef-1234567890ab
	// 292
	// application payload
}

func ExampleInspect() {
	h, err := kmsheader.FromARN("arn:aws:kms:ap-southeast-2:111122223333:key/1234abcd-12ab-34cd-56ef-1234567890ab",
		kmsheader.WithKeySpec(kmsheader.RSA4096))
	if err != nil {
		log.Fatal(err)
	}
	blob, err := h.Bytes()
	if err != nil {
		log.Fatal(err)
	}

	// 16 bytes identify the key; 36 add account, region, and algorithm.
	p, err := kmsheader.Inspect(blob[:16])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(p.KeyID)

	p, err = kmsheader.Inspect(blob[:36])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(p.Account, p.Region, p.Algorithm, p.KeySpec)
	// Output:
	// 1234abcd-12ab-34cd-56ef-1234567890ab
	// 111122223333 ap-southeast-2 RSAES_OAEP_SHA_256 RSA_4096
}
