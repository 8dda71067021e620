package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"tierguard/internal/domain"
	"tierguard/pkg/claimsign"
)

// envelopeFile is the on-disk envelope format, identical to the claim
// submission request body of the HTTP surface.
type envelopeFile struct {
	Claim     claimFile `json:"claim"`
	Signature string    `json:"signature"`
}

type claimFile struct {
	Address   string `json:"address"`
	Tier      string `json:"tier"`
	RiskScore uint32 `json:"risk_score"`
	Expiry    uint64 `json:"expiry"`
	Issuer    string `json:"issuer"`
}

func runKeygen(args []string) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	outSeed := fs.String("out-seed", "", "write the hex seed to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		return 1
	}
	seed := hex.EncodeToString(priv.Seed())
	if *outSeed != "" {
		if err := os.WriteFile(*outSeed, []byte(seed+"\n"), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
			return 1
		}
	} else {
		fmt.Printf("seed: %s\n", seed)
	}
	fmt.Printf("public_key: %s\n", hex.EncodeToString(pub))
	return 0
}

func runClaimSign(args []string) int {
	fs := flag.NewFlagSet("claim sign", flag.ContinueOnError)
	addressHex := fs.String("address", "", "subject address (hex)")
	tierName := fs.String("tier", "", "identity tier")
	riskScore := fs.Uint("risk-score", 0, "risk score 0-100")
	expiry := fs.Uint64("expiry", 0, "claim expiry (unix seconds)")
	keyHex := fs.String("key-hex", "", "issuer private key or seed (hex)")
	keyBase64 := fs.String("key-base64", "", "issuer private key or seed (base64)")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	address, err := domain.ParseAddress(*addressHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim sign: %v\n", err)
		return 1
	}
	tier, err := domain.ParseTier(*tierName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim sign: %v\n", err)
		return 1
	}

	var key ed25519.PrivateKey
	switch {
	case *keyHex != "":
		key, err = claimsign.ParseEd25519PrivateKeyHex(*keyHex)
	case *keyBase64 != "":
		key, err = claimsign.ParseEd25519PrivateKeyBase64(*keyBase64)
	default:
		err = fmt.Errorf("one of --key-hex or --key-base64 is required")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim sign: %v\n", err)
		return 1
	}

	claim, err := claimsign.BuildClaim(address, tier, uint32(*riskScore), *expiry, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim sign: %v\n", err)
		return 1
	}
	env, err := claimsign.SignClaim(claim, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim sign: %v\n", err)
		return 1
	}

	payload, err := json.MarshalIndent(envelopeFile{
		Claim: claimFile{
			Address:   env.Claim.Address.String(),
			Tier:      env.Claim.Tier.String(),
			RiskScore: env.Claim.RiskScore,
			Expiry:    env.Claim.Expiry,
			Issuer:    env.Claim.Issuer.String(),
		},
		Signature: base64.StdEncoding.EncodeToString(env.Signature),
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim sign: %v\n", err)
		return 1
	}
	if err := writeOutput(*out, payload); err != nil {
		fmt.Fprintf(os.Stderr, "claim sign: %v\n", err)
		return 1
	}
	return 0
}

func runClaimVerify(args []string) int {
	fs := flag.NewFlagSet("claim verify", flag.ContinueOnError)
	in := fs.String("in", "", "envelope file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *in == "" {
		fmt.Fprintln(os.Stderr, "claim verify: --in is required")
		return 1
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim verify: %v\n", err)
		return 1
	}
	var file envelopeFile
	if err := json.Unmarshal(raw, &file); err != nil {
		fmt.Fprintf(os.Stderr, "claim verify: %v\n", err)
		return 1
	}
	env, err := parseEnvelopeFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim verify: %v\n", err)
		return 1
	}
	if err := claimsign.Verify(env); err != nil {
		fmt.Fprintf(os.Stderr, "claim verify: %v\n", err)
		return 1
	}
	fmt.Println("signature valid")
	return 0
}

func parseEnvelopeFile(file envelopeFile) (domain.SignedClaimEnvelope, error) {
	address, err := domain.ParseAddress(file.Claim.Address)
	if err != nil {
		return domain.SignedClaimEnvelope{}, err
	}
	issuer, err := domain.ParseAddress(file.Claim.Issuer)
	if err != nil {
		return domain.SignedClaimEnvelope{}, err
	}
	tier, err := domain.ParseTier(file.Claim.Tier)
	if err != nil {
		return domain.SignedClaimEnvelope{}, err
	}
	signature, err := base64.StdEncoding.DecodeString(file.Signature)
	if err != nil {
		return domain.SignedClaimEnvelope{}, err
	}
	return domain.SignedClaimEnvelope{
		Claim: domain.IdentityClaim{
			Address:   address,
			Tier:      tier,
			RiskScore: file.Claim.RiskScore,
			Expiry:    file.Claim.Expiry,
			Issuer:    issuer,
		},
		Signature: signature,
	}, nil
}
