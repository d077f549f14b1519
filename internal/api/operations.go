package api

// GraphQL operation documents consumed by the cart and credit stores.
// Every mutation returns the same cart selection so responses can be merged
// into the snapshot uniformly.

const cartFields = `
    id
    email
    items {
      id
      quantity
      product { sku name }
      prices { price { value currency } }
    }
    prices {
      grand_total { value currency }
      subtotal_with_discount_excluding_tax { value currency }
      discounts { label amount { value currency } }
    }
    applied_coupons { code }
    shipping_addresses {
      firstname
      lastname
      street
      city
      region { code }
      postcode
      country { code }
      telephone
      selected_shipping_method { carrier_code method_code amount { value currency } }
    }
    billing_address {
      firstname
      lastname
      street
      city
      postcode
      country { code }
      telephone
    }`

const (
	QueryCustomerCart = `query { customerCart { id } }`

	QueryCartView = `query cartView($cart_id: String!) {
  cart(cart_id: $cart_id) {` + cartFields + `
  }
}`

	MutationCreateEmptyCart = `mutation { createEmptyCart }`

	MutationMergeCarts = `mutation mergeCarts($sourceCartId: String!, $destinationCartId: String!) {
  mergeCarts(source_cart_id: $sourceCartId, destination_cart_id: $destinationCartId) {` + cartFields + `
  }
}`

	MutationUpdateCartItems = `mutation updateCartItems($cartId: String!, $cartItems: [CartItemUpdateInput]!) {
  updateCartItems(input: { cart_id: $cartId, cart_items: $cartItems }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationRemoveItemFromCart = `mutation removeItemFromCart($cartId: String!, $cartItemId: Int!) {
  removeItemFromCart(input: { cart_id: $cartId, cart_item_id: $cartItemId }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationAddSimpleProductsToCart = `mutation addSimpleProductsToCart($cartId: String!, $products: [SimpleProductCartItemInput]!) {
  addSimpleProductsToCart(input: { cart_id: $cartId, cart_items: $products }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationAddConfigurableProductsToCart = `mutation addConfigurableProductsToCart($cartId: String!, $products: [ConfigurableProductCartItemInput]!) {
  addConfigurableProductsToCart(input: { cart_id: $cartId, cart_items: $products }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationAddBundleProductsToCart = `mutation addBundleProductsToCart($cartId: String!, $products: [BundleProductCartItemInput]!) {
  addBundleProductsToCart(input: { cart_id: $cartId, cart_items: $products }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationAddDownloadableProductsToCart = `mutation addDownloadableProductsToCart($cartId: String!, $products: [DownloadableProductCartItemInput]!) {
  addDownloadableProductsToCart(input: { cart_id: $cartId, cart_items: $products }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationAddVirtualProductsToCart = `mutation addVirtualProductsToCart($cartId: String!, $products: [VirtualProductCartItemInput]!) {
  addVirtualProductsToCart(input: { cart_id: $cartId, cart_items: $products }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationSetGuestEmailOnCart = `mutation setGuestEmailOnCart($cartId: String!, $email: String!) {
  setGuestEmailOnCart(input: { cart_id: $cartId, email: $email }) {
    cart { id email }
  }
}`

	MutationSetShippingAddressesOnCart = `mutation setShippingAddressesOnCart($cartId: String!, $shippingAddress: ShippingAddressInput!) {
  setShippingAddressesOnCart(input: { cart_id: $cartId, shipping_addresses: [$shippingAddress] }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationSetShippingMethodsOnCart = `mutation setShippingMethodsOnCart($cartId: String!, $shippingMethod: ShippingMethodInput!) {
  setShippingMethodsOnCart(input: { cart_id: $cartId, shipping_methods: [$shippingMethod] }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationSetBillingAddressOnCart = `mutation setBillingAddressOnCart($cartId: String!, $billingAddress: BillingAddressInput!) {
  setBillingAddressOnCart(input: { cart_id: $cartId, billing_address: $billingAddress }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationApplyCouponToCart = `mutation applyCouponToCart($cartId: String!, $couponCode: String!) {
  applyCouponToCart(input: { cart_id: $cartId, coupon_code: $couponCode }) {
    cart {` + cartFields + `
    }
  }
}`

	MutationRemoveCouponFromCart = `mutation removeCouponFromCart($cartId: String!) {
  removeCouponFromCart(input: { cart_id: $cartId }) {
    cart {` + cartFields + `
    }
  }
}`
)
