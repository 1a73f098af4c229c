package settings

import "github.com/iov-one/vault"

var (
	seedPrefix   = []byte("multisig")
	seedSettings = []byte("multisig_settings")
	seedVault    = []byte("vault")
)

// SettingsAddress returns the derived address of the settings record with
// given index.
func SettingsAddress(program vault.Address, index [IndexLength]byte) (vault.Address, uint8, error) {
	return vault.FindDerivedAddress([][]byte{seedPrefix, index[:], seedSettings}, program)
}

// VaultSeeds returns the seeds the vault authority with given index is
// derived from. The bump is not included.
func VaultSeeds(settings vault.Address, vaultIndex uint8) [][]byte {
	return [][]byte{seedPrefix, settings[:], seedVault, {vaultIndex}}
}

// VaultAddress returns the derived vault authority. It holds no secret key
// and signs only through the program that derived it.
func VaultAddress(program, settings vault.Address, vaultIndex uint8) (vault.Address, uint8, error) {
	return vault.FindDerivedAddress(VaultSeeds(settings, vaultIndex), program)
}
