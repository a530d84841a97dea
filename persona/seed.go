package persona

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// ProfileSeed hashes a profile into a stable 64-bit seed. Fields are written
// in a fixed order (map keys sorted) so the same profile always yields the
// same seed regardless of how it was constructed.
func ProfileSeed(p core.UserProfile) uint64 {
	h := xxhash.New()
	if p.Age != nil {
		fmt.Fprintf(h, "age=%d;", *p.Age)
	}
	fmt.Fprintf(h, "income=%s;work=%s;residence=%s;", p.IncomeRange, p.WorkStyle, p.Residence)

	keys := make([]string, 0, len(p.Lifestyle))
	for k := range p.Lifestyle {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "life.%s=%s;", k, p.Lifestyle[k])
	}

	fmt.Fprintf(h, "composition=%s;", strings.Join(p.FamilyComposition, ","))
	if p.PartnerInfo != nil {
		fmt.Fprintf(h, "partner=%s/%d;", p.PartnerInfo.Name, p.PartnerInfo.Age)
	}
	for i, c := range p.ChildrenInfo {
		fmt.Fprintf(h, "child.%d=%d/%s;", i, c.Age, c.Gender)
	}
	fmt.Fprintf(h, "hobbies=%s;", strings.Join(p.Hobbies, ","))
	return h.Sum64()
}

// SlotSeed derives a per-slot seed from the profile seed and a role
// discriminator such as "partner" or "child:1:toddler".
func SlotSeed(profileSeed uint64, discriminator string) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], profileSeed)
	h := xxhash.New()
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(discriminator)
	return h.Sum64()
}
