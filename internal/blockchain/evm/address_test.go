package evm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestComputeContractAddress(t *testing.T) {
	tests := []struct {
		name     string
		deployer string
		nonce    uint64
		want     string
		wantErr  bool
	}{
		{
			// First contract of the well-known 0x6ac7...c0 account
			name:     "known vector nonce 0",
			deployer: "0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0",
			nonce:    0,
			want:     "0xcd234a471b72ba2f1ccf0a70fcaba648a5eecd8d",
		},
		{
			name:     "known vector nonce 1",
			deployer: "0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0",
			nonce:    1,
			want:     "0x343c43a37d37dff08ae8c4a11544c718abb4fcf8",
		},
		{
			name:     "zero deployer",
			deployer: "0x0000000000000000000000000000000000000000",
			nonce:    0,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ComputeContractAddress(common.HexToAddress(tt.deployer), tt.nonce)

			if (err != nil) != tt.wantErr {
				t.Errorf("ComputeContractAddress() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && addr != common.HexToAddress(tt.want) {
				t.Errorf("ComputeContractAddress() = %s, want %s", addr.Hex(), tt.want)
			}
		})
	}
}

func TestComputeContractAddressDeterministic(t *testing.T) {
	deployer := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb")

	addr1, err1 := ComputeContractAddress(deployer, 7)
	addr2, err2 := ComputeContractAddress(deployer, 7)

	if err1 != nil || err2 != nil {
		t.Fatalf("ComputeContractAddress() failed: err1=%v, err2=%v", err1, err2)
	}

	if addr1 != addr2 {
		t.Errorf("ComputeContractAddress() is not deterministic: addr1=%s, addr2=%s", addr1.Hex(), addr2.Hex())
	}
}

// A re-run consumes a new nonce, so it deploys an independent contract at a new address.
func TestComputeContractAddressRedeployGetsNewAddress(t *testing.T) {
	deployer := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb")

	first, err1 := ComputeContractAddress(deployer, 12)
	second, err2 := ComputeContractAddress(deployer, 13)

	if err1 != nil || err2 != nil {
		t.Fatalf("ComputeContractAddress() failed: err1=%v, err2=%v", err1, err2)
	}

	if first == second {
		t.Errorf("ComputeContractAddress() returned same address for consecutive nonces")
	}
}

func TestVerifyContractAddress(t *testing.T) {
	deployer := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb")

	expected, err := ComputeContractAddress(deployer, 3)
	if err != nil {
		t.Fatalf("ComputeContractAddress() failed: %v", err)
	}

	valid, err := VerifyContractAddress(expected, deployer, 3)
	if err != nil {
		t.Fatalf("VerifyContractAddress() failed: %v", err)
	}
	if !valid {
		t.Errorf("VerifyContractAddress() returned false for correct address")
	}

	wrong := common.HexToAddress("0x0000000000000000000000000000000000000001")
	valid, err = VerifyContractAddress(wrong, deployer, 3)
	if err != nil {
		t.Fatalf("VerifyContractAddress() failed: %v", err)
	}
	if valid {
		t.Errorf("VerifyContractAddress() returned true for incorrect address")
	}
}

func TestParsePrivateKey(t *testing.T) {
	// Hardhat's first default account
	const key = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	_, addr, err := ParsePrivateKey(key)
	if err != nil {
		t.Fatalf("ParsePrivateKey() failed: %v", err)
	}
	if addr != common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266") {
		t.Errorf("ParsePrivateKey() address = %s", addr.Hex())
	}

	if _, _, err := ParsePrivateKey("0x1234"); err == nil {
		t.Errorf("ParsePrivateKey() accepted a short key")
	}
}
